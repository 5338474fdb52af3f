package level

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/tilecity/internal/vec"
	"github.com/annel0/tilecity/internal/world"
)

func TestWrite_Header(t *testing.T) {
	grid := world.NewTileGrid(vec.Vec3{X: 2, Y: 2, Z: 1}, 3.0)
	require.NoError(t, grid.Rebuild())

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, grid, world.NewLevelData()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, "# Tile grid exported by editor", lines[0])
	assert.Equal(t, "grid 2 2 1", lines[1])
	assert.Equal(t, "tile_size 3", lines[2])
	assert.Len(t, lines, 3, "Дефолтная сетка не порождает строк tile")
}

func TestWrite_AliasesSortedAndPreferred(t *testing.T) {
	grid := world.NewTileGrid(vec.Vec3{X: 2, Y: 2, Z: 1}, 3.0)
	require.NoError(t, grid.Rebuild())
	grid.RegisterTextureAlias("road", "assets/textures/road.png")
	grid.RegisterTextureAlias("grass", "assets/textures/grass.png")

	grid.GetTile(0, 0, 0).SetTopSurface(true, "assets/textures/road.png", world.CarNone)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, grid, world.NewLevelData()))
	out := buf.String()

	grassIdx := strings.Index(out, "texture grass")
	roadIdx := strings.Index(out, "texture road")
	require.GreaterOrEqual(t, grassIdx, 0)
	require.GreaterOrEqual(t, roadIdx, 0)
	assert.Less(t, grassIdx, roadIdx, "Алиасы отсортированы по имени")

	assert.Contains(t, out, "tile 0 0 0 top=solid:road",
		"Путь, известный по алиасу, пишется именем алиаса")
	assert.NotContains(t, out, "top=solid:assets/", "Сырой путь не утекает при наличии алиаса")
}

func TestWrite_SkipsDefaultTiles(t *testing.T) {
	grid := world.NewTileGrid(vec.Vec3{X: 3, Y: 3, Z: 1}, 3.0)
	require.NoError(t, grid.Rebuild())
	grid.GetTile(1, 2, 0).SetWallWalkable(world.North, false)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, grid, world.NewLevelData()))
	out := buf.String()

	assert.Equal(t, 1, strings.Count(out, "\ntile "), "Пишется только недефолтный тайл")
	assert.Contains(t, out, "tile 1 2 0 north=solid")
}

func TestWrite_Vehicle(t *testing.T) {
	grid := world.NewTileGrid(vec.Vec3{X: 4, Y: 4, Z: 1}, 3.0)
	require.NoError(t, grid.Rebuild())
	grid.RegisterTextureAlias("car", "assets/textures/car.png")

	data := world.NewLevelData()
	require.True(t, data.AddOrUpdateSpawn(grid, world.VehicleSpawn{
		GridPosition:    vec.Vec3{X: 2, Y: 3, Z: 0},
		RotationDegrees: 90,
	}))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, grid, data))

	assert.Contains(t, buf.String(), "vehicle 2 3 0 rotation=90.00 texture=car size=1.50x3.00",
		"Поворот и размер с двумя знаками, текстура именем алиаса")
}

func TestWrite_RoundTrip(t *testing.T) {
	// Сохранённый уровень при повторном разборе даёт идентичный вывод
	source := `
grid 4 4 2
tile_size 3
texture road assets/textures/road.png
texture wall assets/textures/wall.png
tile 1 1 0 top=solid:road car=east_west
tile 2 2 1 top=solid:wall north=solid:wall south=solid:wall east=solid:wall west=solid:wall
tile 3 0 0 top=solid
vehicle 1 1 0 rotation=45 size=2x4
`
	gridA := world.NewTileGrid(vec.Vec3{X: 1, Y: 1, Z: 1}, 1.0)
	dataA := world.NewLevelData()
	resA, err := Parse(strings.NewReader(source), "a", gridA, dataA)
	require.NoError(t, err)
	require.Empty(t, resA.Errors())

	var first bytes.Buffer
	require.NoError(t, Write(&first, gridA, dataA))

	gridB := world.NewTileGrid(vec.Vec3{X: 1, Y: 1, Z: 1}, 1.0)
	dataB := world.NewLevelData()
	resB, err := Parse(bytes.NewReader(first.Bytes()), "b", gridB, dataB)
	require.NoError(t, err)
	require.Empty(t, resB.Errors(), "Сохранённый уровень разбирается без диагностик")

	assert.Equal(t, dataA.VehicleSpawns, dataB.VehicleSpawns,
		"Машины переживают цикл сохранения-загрузки")

	var second bytes.Buffer
	require.NoError(t, Write(&second, gridB, dataB))

	assert.Equal(t, first.String(), second.String(), "Write -> Parse -> Write стабилен")
}

func TestWrite_VehiclesAfterTiles(t *testing.T) {
	// Машины пишутся после тайлов: их строки валидны при разборе
	// сверху вниз
	grid := world.NewTileGrid(vec.Vec3{X: 3, Y: 3, Z: 1}, 3.0)
	require.NoError(t, grid.Rebuild())
	grid.GetTile(1, 1, 0).SetTopSolid(true)

	data := world.NewLevelData()
	require.True(t, data.AddOrUpdateSpawn(grid, world.VehicleSpawn{
		GridPosition: vec.Vec3{X: 1, Y: 1, Z: 0},
	}))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, grid, data))
	out := buf.String()

	tileIdx := strings.Index(out, "tile 1 1 0")
	vehicleIdx := strings.Index(out, "vehicle 1 1 0")
	require.GreaterOrEqual(t, tileIdx, 0)
	require.GreaterOrEqual(t, vehicleIdx, 0)
	assert.Less(t, tileIdx, vehicleIdx, "Строка tile предшествует строке vehicle")
}

func TestSaveLevel_WritesFile(t *testing.T) {
	grid := world.NewTileGrid(vec.Vec3{X: 2, Y: 2, Z: 1}, 3.0)
	require.NoError(t, grid.Rebuild())
	grid.GetTile(0, 1, 0).SetTopSolid(true)

	path := t.TempDir() + "/level.txt"
	require.NoError(t, SaveLevel(path, grid, world.NewLevelData()))

	reloaded := world.NewTileGrid(vec.Vec3{X: 1, Y: 1, Z: 1}, 1.0)
	res, err := LoadLevel(path, reloaded, world.NewLevelData())
	require.NoError(t, err)
	assert.Empty(t, res.Errors())
	assert.True(t, reloaded.GetTile(0, 1, 0).IsTopSolid())
}
