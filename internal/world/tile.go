package world

import (
	"github.com/annel0/tilecity/internal/vec"
)

// WallDirection определяет одну из четырёх стен тайла.
// Привязка к осям фиксированная: North = -Y, South = +Y, East = -X, West = +X.
type WallDirection int

const (
	North WallDirection = 0
	South WallDirection = 1
	East  WallDirection = 2
	West  WallDirection = 3

	WallCount = 4
)

// String возвращает имя направления, как оно пишется в файле уровня
func (d WallDirection) String() string {
	switch d {
	case North:
		return "north"
	case South:
		return "south"
	case East:
		return "east"
	case West:
		return "west"
	}
	return "north"
}

// CarDirection описывает разрешённое направление движения по верхней поверхности
type CarDirection int

const (
	CarNone CarDirection = iota
	CarNorth
	CarSouth
	CarEast
	CarWest
	CarNorthSouth // двунаправленная
	CarEastWest   // двунаправленная
)

// String возвращает имя направления, как оно пишется в файле уровня
func (d CarDirection) String() string {
	switch d {
	case CarNorth:
		return "north"
	case CarSouth:
		return "south"
	case CarEast:
		return "east"
	case CarWest:
		return "west"
	case CarNorthSouth:
		return "north_south"
	case CarEastWest:
		return "east_west"
	default:
		return "none"
	}
}

// WallData хранит состояние одной стены тайла
type WallData struct {
	Walkable    bool
	TexturePath string
	Texture     *TextureHandle
}

// TopSurfaceData хранит состояние верхней поверхности тайла
type TopSurfaceData struct {
	Solid        bool
	TexturePath  string
	Texture      *TextureHandle
	CarDirection CarDirection
}

// Tile представляет одну ячейку тайловой сетки.
// Геометрия стен и верхней поверхности - чистая функция их состояния;
// любая мутация помечает меши устаревшими (ленивая перегенерация).
type Tile struct {
	gridPosition  vec.Vec3
	worldPosition vec.Vec3Float
	tileSize      float64

	walls      [WallCount]WallData
	topSurface TopSurfaceData

	wallMeshes [WallCount]*SurfaceMesh
	topMesh    *SurfaceMesh
	meshesDone bool
}

// NewTile создаёт тайл с состоянием по умолчанию:
// все стены проходимы, верхняя поверхность не сплошная.
func NewTile(gridPos vec.Vec3, tileSize float64) *Tile {
	t := &Tile{
		gridPosition: gridPos,
		tileSize:     tileSize,
	}
	for i := range t.walls {
		t.walls[i] = WallData{Walkable: true}
	}
	t.topSurface = TopSurfaceData{Solid: false, CarDirection: CarNone}
	t.updateWorldPosition()
	return t
}

// updateWorldPosition пересчитывает мировую позицию основания тайла.
// Слой z занимает мировой диапазон [(z-1)*tileSize, z*tileSize]:
// сдвиг на -1 по вертикали означает, что "верх" тайла лежит на z*tileSize.
func (t *Tile) updateWorldPosition() {
	t.worldPosition = vec.Vec3Float{
		X: float64(t.gridPosition.X) * t.tileSize,
		Y: float64(t.gridPosition.Y) * t.tileSize,
		Z: float64(t.gridPosition.Z-1) * t.tileSize,
	}
}

// GetGridPosition возвращает позицию тайла в сетке
func (t *Tile) GetGridPosition() vec.Vec3 {
	return t.gridPosition
}

// GetWorldPosition возвращает мировую позицию основания тайла
func (t *Tile) GetWorldPosition() vec.Vec3Float {
	return t.worldPosition
}

// GetTileSize возвращает размер ребра тайла в мировых единицах
func (t *Tile) GetTileSize() float64 {
	return t.tileSize
}

// SetWall устанавливает проходимость и текстуру стены
func (t *Tile) SetWall(dir WallDirection, walkable bool, texturePath string) {
	t.walls[dir].Walkable = walkable
	t.walls[dir].TexturePath = texturePath
	t.walls[dir].Texture = nil // будет загружена при необходимости
	t.meshesDone = false
}

// SetWallWalkable устанавливает только проходимость стены
func (t *Tile) SetWallWalkable(dir WallDirection, walkable bool) {
	t.walls[dir].Walkable = walkable
	t.meshesDone = false
}

// SetWallTexture привязывает к стене загруженную текстуру
func (t *Tile) SetWallTexture(dir WallDirection, texture *TextureHandle) {
	t.walls[dir].Texture = texture
	t.meshesDone = false
}

// GetWall возвращает состояние стены
func (t *Tile) GetWall(dir WallDirection) WallData {
	return t.walls[dir]
}

// IsWallWalkable возвращает true, если через стену можно пройти
func (t *Tile) IsWallWalkable(dir WallDirection) bool {
	return t.walls[dir].Walkable
}

// SetTopSurface устанавливает верхнюю поверхность целиком
func (t *Tile) SetTopSurface(solid bool, texturePath string, carDir CarDirection) {
	t.topSurface.Solid = solid
	t.topSurface.TexturePath = texturePath
	t.topSurface.CarDirection = carDir
	t.topSurface.Texture = nil // будет загружена при необходимости
	t.meshesDone = false
}

// SetTopSolid устанавливает только признак сплошной поверхности
func (t *Tile) SetTopSolid(solid bool) {
	t.topSurface.Solid = solid
	t.meshesDone = false
}

// SetTopTexture привязывает к верхней поверхности загруженную текстуру
func (t *Tile) SetTopTexture(texture *TextureHandle) {
	t.topSurface.Texture = texture
	t.meshesDone = false
}

// SetCarDirection устанавливает направление трафика верхней поверхности
func (t *Tile) SetCarDirection(dir CarDirection) {
	t.topSurface.CarDirection = dir
}

// GetTopSurface возвращает состояние верхней поверхности
func (t *Tile) GetTopSurface() TopSurfaceData {
	return t.topSurface
}

// IsTopSolid возвращает true, если верхняя поверхность сплошная
func (t *Tile) IsTopSolid() bool {
	return t.topSurface.Solid
}

// GetCarDirection возвращает направление трафика верхней поверхности
func (t *Tile) GetCarDirection() CarDirection {
	return t.topSurface.CarDirection
}

// IsDefault возвращает true, если тайл не отличается от свежесозданного.
// Такие тайлы не попадают в файл уровня.
func (t *Tile) IsDefault() bool {
	if t.topSurface.Solid || t.topSurface.CarDirection != CarNone {
		return false
	}
	for i := range t.walls {
		if !t.walls[i].Walkable || t.walls[i].TexturePath != "" {
			return false
		}
	}
	return true
}

// copyContentFrom копирует состояние стен и верхней поверхности из другого
// тайла, не трогая позицию. Используется при структурном resize сетки.
func (t *Tile) copyContentFrom(src *Tile) {
	t.walls = src.walls
	t.topSurface = src.topSurface
	t.meshesDone = false
}
