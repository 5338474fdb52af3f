package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.

type Config struct {
	World   WorldConfig   `yaml:"world"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
}

// WorldConfig задаёт параметры тайловой сетки по умолчанию.
// Значения используются, если уровень не задаёт свои `grid`/`tile_size`.
type WorldConfig struct {
	Width     int     `yaml:"width"`
	Height    int     `yaml:"height"`
	Depth     int     `yaml:"depth"`
	TileSize  float64 `yaml:"tile_size"`
	LevelPath string  `yaml:"level_path"`
	Seed      int64   `yaml:"seed"`
}

type ServerConfig struct {
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
}

type StorageConfig struct {
	DataPath string `yaml:"data_path"`
	UseGzip  bool   `yaml:"use_gzip_compression"`
}

// GetWidth возвращает ширину сетки с fallback значением
func (w *WorldConfig) GetWidth() int {
	if w.Width > 0 {
		return w.Width
	}
	return 16
}

// GetHeight возвращает глубину сетки по Y с fallback значением
func (w *WorldConfig) GetHeight() int {
	if w.Height > 0 {
		return w.Height
	}
	return 16
}

// GetDepth возвращает количество слоёв по Z с fallback значением
func (w *WorldConfig) GetDepth() int {
	if w.Depth > 0 {
		return w.Depth
	}
	return 4
}

// GetTileSize возвращает размер тайла с fallback значением
func (w *WorldConfig) GetTileSize() float64 {
	if w.TileSize > 0 {
		return w.TileSize
	}
	return 3.0
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "TILECITY_REST_PORT", 8088)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "TILECITY_METRICS_PORT", 2112)
}

// GetDataPath возвращает путь к данным с fallback значением
func (st *StorageConfig) GetDataPath() string {
	if st.DataPath != "" {
		return st.DataPath
	}
	if env := os.Getenv("TILECITY_DATA_PATH"); env != "" {
		return env
	}
	return "data"
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	// Используем дефолтное значение
	return defaultPort
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV TILECITY_CONFIG или возвращает nil, nil.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("TILECITY_CONFIG")
		if path == "" {
			return nil, nil // конфиг не задан — использовать дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
