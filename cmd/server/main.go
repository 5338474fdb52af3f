package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/annel0/tilecity/internal/api"
	"github.com/annel0/tilecity/internal/config"
	"github.com/annel0/tilecity/internal/level"
	"github.com/annel0/tilecity/internal/logging"
	"github.com/annel0/tilecity/internal/storage"
	"github.com/annel0/tilecity/internal/vec"
	"github.com/annel0/tilecity/internal/world"
)

func main() {
	// Инициализируем систему логирования
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	logging.Info("🏙️ Запуск Tile City Server...")

	// === КОНФИГУРАЦИЯ ===
	cfg, err := config.Load("")
	if err != nil {
		logging.Warn("Конфигурация не загружена (%v), используются значения по умолчанию", err)
		cfg = nil
	}
	if cfg == nil {
		cfg = &config.Config{}
	}

	restPort := fmt.Sprintf(":%d", cfg.Server.GetRESTPort())
	logging.Info("📡 Конфигурация сервера: REST API=%s", restPort)

	// === ИНИЦИАЛИЗАЦИЯ МИРА ===
	logging.Debug("Создание сетки тайлов...")
	grid := world.NewTileGrid(vec.Vec3{
		X: cfg.World.GetWidth(),
		Y: cfg.World.GetHeight(),
		Z: cfg.World.GetDepth(),
	}, cfg.World.GetTileSize())
	if err := grid.Initialize(); err != nil {
		logging.Error("❌ Ошибка инициализации сетки: %v", err)
		log.Fatalf("❌ Ошибка инициализации сетки: %v", err)
	}

	data := world.NewLevelData()

	// Уровень из файла, если указан; иначе генерируем город
	if cfg.World.LevelPath != "" {
		logging.Info("📄 Загрузка уровня из %s", cfg.World.LevelPath)
		result, err := level.LoadLevel(cfg.World.LevelPath, grid, data)
		if err != nil {
			logging.Error("❌ Ошибка загрузки уровня: %v", err)
			log.Fatalf("❌ Ошибка загрузки уровня: %v", err)
		}
		if result.HasErrors() {
			logging.Warn("⚠️ Уровень загружен с %d ошибками разбора", len(result.Errors()))
		}
	} else {
		logging.Info("🎲 Генерация города (seed=%d)", cfg.World.Seed)
		generator := world.NewCityGenerator(cfg.World.Seed)
		if err := generator.Generate(grid, data); err != nil {
			logging.Error("❌ Ошибка генерации города: %v", err)
			log.Fatalf("❌ Ошибка генерации города: %v", err)
		}
	}

	size := grid.GetGridSize()
	logging.Info("✅ Мир готов: %dx%dx%d тайлов, %d спавнов транспорта",
		size.X, size.Y, size.Z, len(data.VehicleSpawns))

	// === ХРАНИЛИЩЕ СНАПШОТОВ ===
	logging.Debug("Открытие хранилища снапшотов...")
	store, err := storage.NewLevelStore(cfg.Storage.GetDataPath(), cfg.Storage.UseGzip)
	if err != nil {
		logging.Warn("⚠️ Хранилище снапшотов недоступно: %v", err)
		store = nil
	} else {
		defer store.Close()
	}

	// === REST API ===
	server := api.NewRestServer(api.Config{
		Port:  restPort,
		Grid:  grid,
		Data:  data,
		Store: store,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logging.Info("✅ Сервер запущен, ожидание сигнала завершения...")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info("🛑 Получен сигнал %v, завершение работы...", sig)
	case err := <-errCh:
		logging.Error("❌ REST сервер остановился: %v", err)
	}

	logging.Info("👋 Сервер остановлен")
}
