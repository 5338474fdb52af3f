package world

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/tilecity/internal/vec"
)

func newTestGrid(t *testing.T, w, h, d int) *TileGrid {
	t.Helper()
	grid := NewTileGrid(vec.Vec3{X: w, Y: h, Z: d}, 3.0)
	require.NoError(t, grid.Rebuild(), "Сетка должна построиться")
	return grid
}

func TestTileGrid_Bounds(t *testing.T) {
	grid := newTestGrid(t, 4, 3, 2)

	assert.True(t, grid.IsValidPosition(0, 0, 0))
	assert.True(t, grid.IsValidPosition(3, 2, 1))
	assert.False(t, grid.IsValidPosition(4, 0, 0), "X за границей")
	assert.False(t, grid.IsValidPosition(0, 3, 0), "Y за границей")
	assert.False(t, grid.IsValidPosition(0, 0, 2), "Z за границей")
	assert.False(t, grid.IsValidPosition(-1, 0, 0), "Отрицательные координаты недопустимы")

	assert.NotNil(t, grid.GetTile(3, 2, 1), "Валидная позиция возвращает тайл")
	assert.Nil(t, grid.GetTile(4, 0, 0), "Вне диапазона возвращается nil, не паника")
}

func TestTileGrid_RebuildValidation(t *testing.T) {
	grid := NewTileGrid(vec.Vec3{X: 0, Y: 3, Z: 1}, 3.0)
	assert.Error(t, grid.Rebuild(), "Нулевое измерение должно отвергаться")

	grid = NewTileGrid(vec.Vec3{X: 2, Y: 2, Z: 1}, 0)
	assert.Error(t, grid.Rebuild(), "Нулевой размер тайла должен отвергаться")
}

func TestTileGrid_CoordinateRoundTrip(t *testing.T) {
	grid := newTestGrid(t, 5, 5, 3)

	for z := 0; z < 3; z++ {
		for y := 0; y < 5; y++ {
			for x := 0; x < 5; x++ {
				gridPos := vec.Vec3{X: x, Y: y, Z: z}
				worldPos := grid.GridToWorld(gridPos)
				back := grid.WorldToGrid(worldPos)
				assert.True(t, gridPos.Equals(back),
					"Позиция (%d,%d,%d) должна пережить цикл grid->world->grid, получено %v", x, y, z, back)
			}
		}
	}
}

func TestTileGrid_WorldToGridVerticalOffset(t *testing.T) {
	grid := newTestGrid(t, 4, 4, 3)

	// Мировой Z=0 — верх слоя 0, уже внутри слоя 1
	assert.Equal(t, 1, grid.WorldToGrid(vec.Vec3Float{Z: 0}).Z)
	// Чуть ниже нуля — ещё слой 0
	assert.Equal(t, 0, grid.WorldToGrid(vec.Vec3Float{Z: -0.5}).Z)
	// Верхняя поверхность тайла слоя z лежит на z*tileSize
	world := grid.GridToWorld(vec.Vec3{X: 0, Y: 0, Z: 2})
	assert.Equal(t, 3.0, world.Z, "Основание слоя 2 при tileSize=3")
}

func TestTileGrid_ResizeKeepsOverlap(t *testing.T) {
	grid := newTestGrid(t, 4, 4, 2)

	grid.GetTile(1, 1, 0).SetTopSurface(true, "road", CarNorthSouth)
	grid.GetTile(3, 3, 1).SetWallWalkable(East, false)

	require.True(t, grid.Resize(vec.Vec3{X: 6, Y: 6, Z: 2}), "Рост сетки должен удаться")

	assert.True(t, grid.GetTile(1, 1, 0).IsTopSolid(), "Содержимое пересечения сохранено")
	assert.Equal(t, CarNorthSouth, grid.GetTile(1, 1, 0).GetCarDirection())
	assert.False(t, grid.GetTile(3, 3, 1).IsWallWalkable(East))
	assert.True(t, grid.GetTile(5, 5, 1).IsDefault(), "Новые ячейки дефолтные")

	// Обратное сжатие отрезает всё вне нового объёма
	require.True(t, grid.Resize(vec.Vec3{X: 2, Y: 2, Z: 2}))
	assert.Nil(t, grid.GetTile(3, 3, 1), "Сжатая сетка не содержит старых координат")
	assert.True(t, grid.GetTile(1, 1, 0).IsTopSolid(), "Пересечение переживает сжатие")
}

func TestTileGrid_ResizeRejectsInvalid(t *testing.T) {
	grid := newTestGrid(t, 3, 3, 1)
	grid.GetTile(0, 0, 0).SetTopSolid(true)

	assert.False(t, grid.Resize(vec.Vec3{X: 0, Y: 3, Z: 1}), "Нулевое измерение отвергается")
	assert.Equal(t, vec.Vec3{X: 3, Y: 3, Z: 1}, grid.GetGridSize(), "Сетка не изменилась")
	assert.True(t, grid.GetTile(0, 0, 0).IsTopSolid(), "Содержимое не тронуто")
}

func TestTileGrid_TextureAliases(t *testing.T) {
	grid := newTestGrid(t, 2, 2, 1)

	grid.RegisterTextureAlias("road", "assets/textures/road.png")
	assert.Equal(t, "assets/textures/road.png", grid.ResolveTexturePath("road"))
	assert.Equal(t, "unknown.png", grid.ResolveTexturePath("unknown.png"),
		"Неизвестный идентификатор возвращается как есть")

	grid.RegisterTextureAlias("", "x.png")
	grid.RegisterTextureAlias("empty", "")
	aliases := grid.GetTextureAliases()
	assert.Len(t, aliases, 1, "Пустые алиасы и пути не регистрируются")

	// Позднее переопределение выигрывает
	grid.RegisterTextureAlias("road", "assets/textures/road_v2.png")
	assert.Equal(t, "assets/textures/road_v2.png", grid.ResolveTexturePath("road"))
}

// stubLoader считает обращения и падает для путей из failPaths
type stubLoader struct {
	calls     int
	failPaths map[string]bool
}

func (sl *stubLoader) LoadFromPath(path string) (*TextureHandle, error) {
	sl.calls++
	if sl.failPaths[path] {
		return nil, fmt.Errorf("нет файла: %s", path)
	}
	return &TextureHandle{Path: path, Width: 16, Height: 16}, nil
}

func TestTileGrid_TextureCacheNegativeEntries(t *testing.T) {
	grid := newTestGrid(t, 2, 2, 1)
	loader := &stubLoader{failPaths: map[string]bool{"bad.png": true}}
	grid.SetTextureLoader(loader)

	assert.Nil(t, grid.LoadTextureFromPath("bad.png"), "Неудачная загрузка возвращает nil")
	assert.Nil(t, grid.LoadTextureFromPath("bad.png"), "Повтор берётся из кеша")
	assert.Equal(t, 1, loader.calls, "Неуспех кешируется, загрузчик дёргается один раз")

	handle := grid.LoadTextureFromPath("ok.png")
	require.NotNil(t, handle)
	same := grid.LoadTextureFromPath("ok.png")
	assert.Same(t, handle, same, "Успешная загрузка кешируется")
	assert.Equal(t, 2, loader.calls)
}

func TestTileGrid_LoadTextureWithoutLoader(t *testing.T) {
	grid := newTestGrid(t, 2, 2, 1)

	assert.Nil(t, grid.LoadTextureFromPath("any.png"), "Без загрузчика все загрузки неуспешны")
	assert.Nil(t, grid.LoadTexture(""), "Пустой идентификатор даёт nil")
}
