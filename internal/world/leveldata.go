package world

import (
	"math"

	"github.com/annel0/tilecity/internal/vec"
)

// Размеры машины по умолчанию (ширина x длина, мировые единицы)
const (
	DefaultSpawnWidth  = 1.5
	DefaultSpawnLength = 3.0
)

// VehicleSpawn описывает точку появления машины, привязанную к ячейке
// сетки. Хранится вне TileGrid, чтобы переживать его перестройки.
type VehicleSpawn struct {
	GridPosition    vec.Vec3
	RotationDegrees float64
	Size            vec.Vec2Float // ширина x длина
	TexturePath     string
}

// LevelData хранит данные уровня, не принадлежащие самой сетке:
// разреженный список точек появления машин.
type LevelData struct {
	VehicleSpawns []VehicleSpawn
}

// NewLevelData создаёт пустые данные уровня
func NewLevelData() *LevelData {
	return &LevelData{}
}

// Clear удаляет все точки появления. Вызывается только при полной
// перезагрузке уровня парсером; Resize/Rebuild сетки список не трогают.
func (ld *LevelData) Clear() {
	ld.VehicleSpawns = ld.VehicleSpawns[:0]
}

// FindSpawn возвращает точку появления в указанной ячейке или nil.
// Линейный поиск: список мал относительно объёма сетки.
func (ld *LevelData) FindSpawn(gridPos vec.Vec3) *VehicleSpawn {
	for i := range ld.VehicleSpawns {
		if ld.VehicleSpawns[i].GridPosition.Equals(gridPos) {
			return &ld.VehicleSpawns[i]
		}
	}
	return nil
}

// AddOrUpdateSpawn добавляет точку появления или обновляет существующую
// с той же позицией (последняя запись выигрывает). Поворот нормализуется
// в [0, 360), неположительные размеры заменяются дефолтными, пустая
// текстура - разрешённым алиасом "car". Позиция вне сетки отвергается.
func (ld *LevelData) AddOrUpdateSpawn(grid *TileGrid, spawn VehicleSpawn) bool {
	if grid == nil || !grid.IsValidPositionVec(spawn.GridPosition) {
		return false
	}

	normalized := spawn
	if normalized.TexturePath == "" {
		normalized.TexturePath = grid.ResolveTexturePath("car")
	}
	normalized.RotationDegrees = normalizeRotation(normalized.RotationDegrees)
	if normalized.Size.X <= 0 {
		normalized.Size.X = DefaultSpawnWidth
	}
	if normalized.Size.Y <= 0 {
		normalized.Size.Y = DefaultSpawnLength
	}

	if existing := ld.FindSpawn(spawn.GridPosition); existing != nil {
		*existing = normalized
		return true
	}

	ld.VehicleSpawns = append(ld.VehicleSpawns, normalized)
	return true
}

// normalizeRotation приводит угол к [0, 360). NaN и бесконечности
// заменяются нулём.
func normalizeRotation(degrees float64) float64 {
	if math.IsNaN(degrees) || math.IsInf(degrees, 0) {
		return 0
	}
	degrees = math.Mod(degrees, 360)
	if degrees < 0 {
		degrees += 360
	}
	return degrees
}

// RemoveSpawnAt удаляет точку появления в ячейке. false, если её не было.
func (ld *LevelData) RemoveSpawnAt(gridPos vec.Vec3) bool {
	for i := range ld.VehicleSpawns {
		if ld.VehicleSpawns[i].GridPosition.Equals(gridPos) {
			ld.VehicleSpawns = append(ld.VehicleSpawns[:i], ld.VehicleSpawns[i+1:]...)
			return true
		}
	}
	return false
}
