package world

import (
	"github.com/annel0/tilecity/internal/vec"
)

// SurfaceMesh — квад одной грани тайла в мировых координатах.
// Для рендера это непрозрачные данные: ядро не знает, как они рисуются.
type SurfaceMesh struct {
	Vertices [4]vec.Vec3Float
	Normal   vec.Vec3Float
}

// Transform — модельная трансформация поверхности (здесь только перенос)
type Transform struct {
	Position vec.Vec3Float
}

// Tint — цветовой множитель поверхности
type Tint struct {
	R, G, B, A float64
}

// TintWhite — нейтральный цвет
var TintWhite = Tint{R: 1, G: 1, B: 1, A: 1}

// RenderSink — коллаборатор, которому ядро отдаёт готовые поверхности.
type RenderSink interface {
	RenderSurface(mesh *SurfaceMesh, transform Transform, materialHint string, tint Tint)
}

// generateMeshes строит меши стен и верхней поверхности из текущего
// состояния тайла. Вызывается лениво из Render после любой мутации.
func (t *Tile) generateMeshes() {
	half := t.tileSize * 0.5
	cx := t.worldPosition.X
	cy := t.worldPosition.Y
	bottom := t.worldPosition.Z
	top := t.worldPosition.Z + t.tileSize

	for i := range t.wallMeshes {
		t.wallMeshes[i] = nil
	}
	t.topMesh = nil

	if t.topSurface.Solid {
		t.topMesh = &SurfaceMesh{
			Vertices: [4]vec.Vec3Float{
				{X: cx - half, Y: cy - half, Z: top},
				{X: cx + half, Y: cy - half, Z: top},
				{X: cx + half, Y: cy + half, Z: top},
				{X: cx - half, Y: cy + half, Z: top},
			},
			Normal: vec.Vec3Float{Z: 1},
		}
	}

	for dir := WallDirection(0); dir < WallCount; dir++ {
		wall := t.walls[dir]
		// Проходимая стена без текстуры не имеет геометрии
		if wall.Walkable && wall.TexturePath == "" {
			continue
		}
		t.wallMeshes[dir] = t.buildWallMesh(dir, cx, cy, half, bottom, top)
	}

	t.meshesDone = true
}

func (t *Tile) buildWallMesh(dir WallDirection, cx, cy, half, bottom, top float64) *SurfaceMesh {
	switch dir {
	case North: // грань -Y
		return &SurfaceMesh{
			Vertices: [4]vec.Vec3Float{
				{X: cx - half, Y: cy - half, Z: bottom},
				{X: cx + half, Y: cy - half, Z: bottom},
				{X: cx + half, Y: cy - half, Z: top},
				{X: cx - half, Y: cy - half, Z: top},
			},
			Normal: vec.Vec3Float{Y: -1},
		}
	case South: // грань +Y
		return &SurfaceMesh{
			Vertices: [4]vec.Vec3Float{
				{X: cx + half, Y: cy + half, Z: bottom},
				{X: cx - half, Y: cy + half, Z: bottom},
				{X: cx - half, Y: cy + half, Z: top},
				{X: cx + half, Y: cy + half, Z: top},
			},
			Normal: vec.Vec3Float{Y: 1},
		}
	case East: // грань -X
		return &SurfaceMesh{
			Vertices: [4]vec.Vec3Float{
				{X: cx - half, Y: cy + half, Z: bottom},
				{X: cx - half, Y: cy - half, Z: bottom},
				{X: cx - half, Y: cy - half, Z: top},
				{X: cx - half, Y: cy + half, Z: top},
			},
			Normal: vec.Vec3Float{X: -1},
		}
	default: // West, грань +X
		return &SurfaceMesh{
			Vertices: [4]vec.Vec3Float{
				{X: cx + half, Y: cy - half, Z: bottom},
				{X: cx + half, Y: cy + half, Z: bottom},
				{X: cx + half, Y: cy + half, Z: top},
				{X: cx + half, Y: cy - half, Z: top},
			},
			Normal: vec.Vec3Float{X: 1},
		}
	}
}

// Render отдаёт текущие поверхности тайла в sink, при необходимости
// перегенерировав устаревшие меши. Повторные вызовы без мутаций мешей
// не перестраивают.
func (t *Tile) Render(sink RenderSink) {
	if sink == nil {
		return
	}
	if !t.meshesDone {
		t.generateMeshes()
	}

	transform := Transform{Position: t.worldPosition}

	if t.topMesh != nil {
		sink.RenderSurface(t.topMesh, transform, t.topSurface.TexturePath, TintWhite)
	}
	for dir := WallDirection(0); dir < WallCount; dir++ {
		if mesh := t.wallMeshes[dir]; mesh != nil {
			sink.RenderSurface(mesh, transform, t.walls[dir].TexturePath, TintWhite)
		}
	}
}

// Render отрисовывает все тайлы сетки
func (g *TileGrid) Render(sink RenderSink) {
	if sink == nil {
		return
	}
	for _, tile := range g.tiles {
		tile.Render(sink)
	}
}
