package world

import (
	"fmt"
	"math"

	"github.com/annel0/tilecity/internal/logging"
	"github.com/annel0/tilecity/internal/vec"
)

// TileGrid владеет плотным массивом тайлов, таблицей алиасов текстур и
// кешем загруженных текстур. Индексация плоская: x + y*W + z*W*H.
// Все мутации происходят в одном потоке (см. модель хоста).
type TileGrid struct {
	gridSize vec.Vec3
	tileSize float64
	tiles    []*Tile

	textureAliases map[string]string
	textureCache   map[string]*TextureHandle
	loader         TextureLoader
}

// NewTileGrid создаёт сетку с указанными размерами. Тайлы не
// аллоцируются до вызова Initialize или Rebuild.
func NewTileGrid(gridSize vec.Vec3, tileSize float64) *TileGrid {
	return &TileGrid{
		gridSize:       gridSize,
		tileSize:       tileSize,
		textureAliases: make(map[string]string),
		textureCache:   make(map[string]*TextureHandle),
	}
}

// Initialize сбрасывает кеши, регистрирует стандартные алиасы текстур
// и строит тайлы.
func (g *TileGrid) Initialize() error {
	g.textureCache = make(map[string]*TextureHandle)
	g.textureAliases = make(map[string]string)

	g.RegisterTextureAlias("grass", "assets/textures/grass.png")
	g.RegisterTextureAlias("road", "assets/textures/road.png")
	g.RegisterTextureAlias("wall", "assets/textures/wall.png")
	g.RegisterTextureAlias("car", "assets/textures/car.png")

	if err := g.Rebuild(); err != nil {
		return fmt.Errorf("инициализация тайловой сетки: %w", err)
	}

	logging.Info("Тайловая сетка инициализирована: %dx%dx%d (%d тайлов)",
		g.gridSize.X, g.gridSize.Y, g.gridSize.Z, len(g.tiles))
	return nil
}

// SetTextureLoader задаёт загрузчик текстур. nil допустим: все загрузки
// будут завершаться неуспехом и кешироваться как пустые записи.
func (g *TileGrid) SetTextureLoader(loader TextureLoader) {
	g.loader = loader
}

// Rebuild отбрасывает все тайлы и создаёт их заново с состоянием по
// умолчанию при текущих размерах. Семантика полной перезагрузки.
func (g *TileGrid) Rebuild() error {
	if g.gridSize.X <= 0 || g.gridSize.Y <= 0 || g.gridSize.Z <= 0 {
		return fmt.Errorf("недопустимый размер сетки: %dx%dx%d",
			g.gridSize.X, g.gridSize.Y, g.gridSize.Z)
	}
	if g.tileSize <= 0 {
		return fmt.Errorf("недопустимый размер тайла: %v", g.tileSize)
	}

	total := g.gridSize.X * g.gridSize.Y * g.gridSize.Z
	g.tiles = make([]*Tile, 0, total)

	for z := 0; z < g.gridSize.Z; z++ {
		for y := 0; y < g.gridSize.Y; y++ {
			for x := 0; x < g.gridSize.X; x++ {
				g.tiles = append(g.tiles, NewTile(vec.Vec3{X: x, Y: y, Z: z}, g.tileSize))
			}
		}
	}

	return nil
}

// Configure устанавливает размеры и размер тайла и перестраивает сетку.
// Используется парсером уровня после первого прохода. При ошибке
// прежнее состояние не меняется.
func (g *TileGrid) Configure(gridSize vec.Vec3, tileSize float64) error {
	if gridSize.X <= 0 || gridSize.Y <= 0 || gridSize.Z <= 0 {
		return fmt.Errorf("недопустимый размер сетки: %dx%dx%d", gridSize.X, gridSize.Y, gridSize.Z)
	}
	if tileSize <= 0 {
		return fmt.Errorf("недопустимый размер тайла: %v", tileSize)
	}

	g.gridSize = gridSize
	g.tileSize = tileSize
	return g.Rebuild()
}

// Resize меняет размеры сетки, структурно копируя содержимое тайлов из
// пересекающейся области. Возвращает false (сетка не тронута), если
// какое-либо измерение <= 0. Ячейки вне пересечения получают состояние
// по умолчанию.
func (g *TileGrid) Resize(newSize vec.Vec3) bool {
	if newSize.X <= 0 || newSize.Y <= 0 || newSize.Z <= 0 {
		return false
	}

	oldSize := g.gridSize
	oldTiles := g.tiles

	oldIndex := func(x, y, z int) int {
		return x + y*oldSize.X + z*oldSize.X*oldSize.Y
	}

	g.gridSize = newSize
	total := newSize.X * newSize.Y * newSize.Z
	g.tiles = make([]*Tile, 0, total)

	for z := 0; z < newSize.Z; z++ {
		for y := 0; y < newSize.Y; y++ {
			for x := 0; x < newSize.X; x++ {
				tile := NewTile(vec.Vec3{X: x, Y: y, Z: z}, g.tileSize)
				if oldTiles != nil && x < oldSize.X && y < oldSize.Y && z < oldSize.Z {
					tile.copyContentFrom(oldTiles[oldIndex(x, y, z)])
				}
				g.tiles = append(g.tiles, tile)
			}
		}
	}

	return true
}

// SetTileSize меняет размер ребра тайла. false при значении <= 0.
func (g *TileGrid) SetTileSize(tileSize float64) bool {
	if tileSize <= 0 {
		return false
	}
	g.tileSize = tileSize
	return true
}

// GetGridSize возвращает размеры сетки
func (g *TileGrid) GetGridSize() vec.Vec3 {
	return g.gridSize
}

// GetTileSize возвращает размер ребра тайла
func (g *TileGrid) GetTileSize() float64 {
	return g.tileSize
}

// IsValidPosition возвращает true, если координаты лежат внутри сетки
func (g *TileGrid) IsValidPosition(x, y, z int) bool {
	return x >= 0 && x < g.gridSize.X &&
		y >= 0 && y < g.gridSize.Y &&
		z >= 0 && z < g.gridSize.Z
}

// IsValidPositionVec возвращает true, если позиция лежит внутри сетки
func (g *TileGrid) IsValidPositionVec(pos vec.Vec3) bool {
	return g.IsValidPosition(pos.X, pos.Y, pos.Z)
}

func (g *TileGrid) getIndex(x, y, z int) int {
	return x + y*g.gridSize.X + z*g.gridSize.X*g.gridSize.Y
}

// GetTile возвращает тайл по координатам или nil вне диапазона
func (g *TileGrid) GetTile(x, y, z int) *Tile {
	if !g.IsValidPosition(x, y, z) {
		return nil
	}
	return g.tiles[g.getIndex(x, y, z)]
}

// GetTileVec возвращает тайл по позиции или nil вне диапазона
func (g *TileGrid) GetTileVec(pos vec.Vec3) *Tile {
	return g.GetTile(pos.X, pos.Y, pos.Z)
}

// GridToWorld переводит позицию в сетке в мировую позицию основания
// тайла. Вертикальный сдвиг -1 намеренный: слой z занимает мировой
// диапазон [(z-1)*tileSize, z*tileSize].
func (g *TileGrid) GridToWorld(gridPos vec.Vec3) vec.Vec3Float {
	return vec.Vec3Float{
		X: float64(gridPos.X) * g.tileSize,
		Y: float64(gridPos.Y) * g.tileSize,
		Z: float64(gridPos.Z-1) * g.tileSize,
	}
}

// WorldToGrid переводит мировую позицию в координаты ячейки. По X/Y
// ячейки центрированы на кратных tileSize, по Z учитывается сдвиг -1.
func (g *TileGrid) WorldToGrid(worldPos vec.Vec3Float) vec.Vec3 {
	half := g.tileSize * 0.5
	return vec.Vec3{
		X: int(math.Floor((worldPos.X + half) / g.tileSize)),
		Y: int(math.Floor((worldPos.Y + half) / g.tileSize)),
		Z: int(math.Floor((worldPos.Z + g.tileSize) / g.tileSize)),
	}
}

// RegisterTextureAlias регистрирует символическое имя текстуры.
// Пустые имя или путь игнорируются.
func (g *TileGrid) RegisterTextureAlias(alias, path string) {
	if alias == "" || path == "" {
		return
	}
	g.textureAliases[alias] = path
}

// ResolveTexturePath возвращает путь для алиаса; неизвестный
// идентификатор возвращается без изменений (идентификаторы и сырые
// пути взаимозаменяемы).
func (g *TileGrid) ResolveTexturePath(identifier string) string {
	if path, ok := g.textureAliases[identifier]; ok {
		return path
	}
	return identifier
}

// GetTextureAliases возвращает копию таблицы алиасов
func (g *TileGrid) GetTextureAliases() map[string]string {
	result := make(map[string]string, len(g.textureAliases))
	for alias, path := range g.textureAliases {
		result[alias] = path
	}
	return result
}

// LoadTexture загружает текстуру по идентификатору (алиас или путь)
func (g *TileGrid) LoadTexture(identifier string) *TextureHandle {
	return g.LoadTextureFromPath(g.ResolveTexturePath(identifier))
}

// LoadTextureFromPath загружает текстуру по пути через кеш. Неудачная
// загрузка тоже кешируется (пустая запись), чтобы повторные обращения
// не дёргали загрузчик; вызывающий обязан трактовать nil как "использовать
// fallback", а не как фатальную ошибку.
func (g *TileGrid) LoadTextureFromPath(path string) *TextureHandle {
	if path == "" {
		return nil
	}

	if handle, cached := g.textureCache[path]; cached {
		return handle
	}

	if g.loader == nil {
		g.textureCache[path] = nil
		return nil
	}

	handle, err := g.loader.LoadFromPath(path)
	if err != nil {
		logging.Warn("Не удалось загрузить текстуру %s: %v", path, err)
		g.textureCache[path] = nil
		return nil
	}

	g.textureCache[path] = handle
	return handle
}
