package physics

import (
	"github.com/annel0/tilecity/internal/vec"
	"github.com/annel0/tilecity/internal/world"
)

// MoveAxisSeparated применяет 2D-перемещение к мировой позиции,
// раскладывая его на отдельные шаги по X и по Y. CanOccupy оценивает
// только один прямой шаг, поэтому раздельные оси дают скольжение вдоль
// блокирующей стены вместо полной остановки.
func MoveAxisSeparated(grid *world.TileGrid, pos vec.Vec3Float, delta vec.Vec2Float) vec.Vec3Float {
	newPos := pos

	if delta.X != 0 {
		target := newPos.Add(vec.Vec3Float{X: delta.X})
		if grid.CanOccupy(newPos, target) {
			newPos.X = target.X
		}
	}

	if delta.Y != 0 {
		target := newPos.Add(vec.Vec3Float{Y: delta.Y})
		if grid.CanOccupy(newPos, target) {
			newPos.Y = target.Y
		}
	}

	return newPos
}

// BoxCollider представляет прямоугольный коллайдер в плоскости XY
// (ширина x длина в мировых единицах). Используется машинами.
type BoxCollider struct {
	Width  float64
	Length float64
}

// NewBoxCollider создаёт коллайдер с указанными размерами
func NewBoxCollider(width, length float64) *BoxCollider {
	return &BoxCollider{Width: width, Length: length}
}

// Overlaps проверяет пересечение двух коллайдеров в указанных позициях
func Overlaps(pos1 vec.Vec2Float, c1 *BoxCollider, pos2 vec.Vec2Float, c2 *BoxCollider) bool {
	halfW1 := c1.Width / 2
	halfL1 := c1.Length / 2
	halfW2 := c2.Width / 2
	halfL2 := c2.Length / 2

	return pos1.X+halfW1 > pos2.X-halfW2 &&
		pos1.X-halfW1 < pos2.X+halfW2 &&
		pos1.Y+halfL1 > pos2.Y-halfL2 &&
		pos1.Y-halfL1 < pos2.Y+halfL2
}
