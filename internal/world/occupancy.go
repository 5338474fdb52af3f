package world

import (
	"github.com/annel0/tilecity/internal/vec"
)

// HasGroundSupport возвращает true, если под ячейкой есть опора:
// тайл слоем ниже существует и его верхняя поверхность сплошная.
// Слой 0 опоры не имеет никогда (слоя -1 не существует).
func (g *TileGrid) HasGroundSupport(tilePos vec.Vec3) bool {
	groundZ := tilePos.Z - 1
	if groundZ < 0 {
		return false
	}

	groundTile := g.GetTile(tilePos.X, tilePos.Y, groundZ)
	if groundTile == nil {
		return false
	}

	return groundTile.IsTopSolid()
}

// CanOccupy отвечает, может ли объект переместиться из startPos в
// endPos (мировые координаты) одним прямым шагом. Правила:
//   - обе позиции должны лежать внутри сетки;
//   - та же ячейка: нужна опора под ней;
//   - шаг по вертикали или манхэттенское расстояние > 1 — отказ;
//   - ортогональный шаг: обе обращённые друг к другу стены должны быть
//     проходимыми, и у целевой ячейки должна быть опора.
//
// Вызывающие обязаны раскладывать 2D-движение на отдельные шаги по X и
// Y, иначе скольжение вдоль блокирующей стены невозможно.
func (g *TileGrid) CanOccupy(startPos, endPos vec.Vec3Float) bool {
	startTile := g.WorldToGrid(startPos)
	endTile := g.WorldToGrid(endPos)

	if !g.IsValidPositionVec(startTile) || !g.IsValidPositionVec(endTile) {
		return false
	}

	if startTile.Equals(endTile) {
		return g.HasGroundSupport(endTile)
	}

	diff := endTile.Sub(startTile)
	if diff.Z != 0 {
		return false
	}

	manhattan := abs(diff.X) + abs(diff.Y)
	if manhattan > 1 {
		return false
	}

	// Пара стен, обращённых друг к другу через границу ячеек.
	// North = -Y, South = +Y, East = -X, West = +X.
	var fromDir, toDir WallDirection
	switch {
	case diff.X == 1:
		fromDir, toDir = West, East
	case diff.X == -1:
		fromDir, toDir = East, West
	case diff.Y == 1:
		fromDir, toDir = South, North
	case diff.Y == -1:
		fromDir, toDir = North, South
	default:
		return g.HasGroundSupport(endTile)
	}

	fromTile := g.GetTileVec(startTile)
	toTile := g.GetTileVec(endTile)
	if fromTile == nil || toTile == nil {
		return false
	}

	if !fromTile.IsWallWalkable(fromDir) || !toTile.IsWallWalkable(toDir) {
		return false
	}

	return g.HasGroundSupport(endTile)
}

// IsRoadTile возвращает true, если верхняя поверхность тайла несёт
// направление трафика.
func (g *TileGrid) IsRoadTile(gridPos vec.Vec3) bool {
	if !g.IsValidPositionVec(gridPos) {
		return false
	}

	tile := g.GetTileVec(gridPos)
	if tile == nil {
		return false
	}

	return tile.GetCarDirection() != CarNone
}

// IsRoadTileWorld — вариант IsRoadTile для мировых координат
func (g *TileGrid) IsRoadTileWorld(worldPos vec.Vec3Float) bool {
	return g.IsRoadTile(g.WorldToGrid(worldPos))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
