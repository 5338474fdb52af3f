package level

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/tilecity/internal/vec"
	"github.com/annel0/tilecity/internal/world"
)

func parseText(t *testing.T, text string) (*world.TileGrid, *world.LevelData, *Result) {
	t.Helper()
	grid := world.NewTileGrid(vec.Vec3{X: 1, Y: 1, Z: 1}, 1.0)
	data := world.NewLevelData()
	res, err := Parse(strings.NewReader(text), "test", grid, data)
	require.NoError(t, err, "Разбор не должен падать целиком")
	return grid, data, res
}

func TestParse_BasicLevel(t *testing.T) {
	text := `
# комментарий
grid 3 3 1
tile_size 3.0
texture road assets/textures/road.png
tile 1 1 0 top=solid:road car=north_south
`
	grid, _, res := parseText(t, text)

	assert.Empty(t, res.Diagnostics, "Корректный уровень без диагностик")
	assert.Equal(t, vec.Vec3{X: 3, Y: 3, Z: 1}, grid.GetGridSize())
	assert.Equal(t, 3.0, grid.GetTileSize())

	tile := grid.GetTile(1, 1, 0)
	require.NotNil(t, tile)
	assert.True(t, tile.IsTopSolid())
	assert.Equal(t, "assets/textures/road.png", tile.GetTopSurface().TexturePath,
		"Алиас road должен резолвиться в путь")
	assert.Equal(t, world.CarNorthSouth, tile.GetCarDirection())
	assert.True(t, grid.GetTile(0, 0, 0).IsDefault(), "Не упомянутые тайлы дефолтные")
}

func TestParse_WallProperties(t *testing.T) {
	text := `
grid 2 2 1
tile_size 3.0
texture wall assets/textures/wall.png
tile 0 0 0 n=solid:wall wall_south=walkable:wall e=blocked w=open
`
	grid, _, res := parseText(t, text)
	require.Empty(t, res.Errors())

	tile := grid.GetTile(0, 0, 0)
	assert.False(t, tile.IsWallWalkable(world.North))
	assert.Equal(t, "assets/textures/wall.png", tile.GetWall(world.North).TexturePath)
	assert.True(t, tile.IsWallWalkable(world.South), "walkable с текстурой остаётся проходимой")
	assert.Equal(t, "assets/textures/wall.png", tile.GetWall(world.South).TexturePath)
	assert.False(t, tile.IsWallWalkable(world.East), "Синоним blocked")
	assert.True(t, tile.IsWallWalkable(world.West), "Синоним open")
}

func TestParse_ErrorIsolation(t *testing.T) {
	// Одна плохая строка не мешает остальным девяти
	lines := []string{
		"grid 4 4 1",
		"tile_size 3.0",
		"tile 0 0 0 top=solid",
		"tile 1 0 0 top=solid",
		"tile 1 1 x", // некорректные координаты
		"tile 2 0 0 top=solid",
		"tile 3 0 0 top=solid",
		"tile 0 1 0 top=solid",
		"tile 1 1 0 top=solid",
		"tile 2 1 0 top=solid",
	}
	grid, _, res := parseText(t, strings.Join(lines, "\n"))

	require.Len(t, res.Errors(), 1, "Ровно одна ошибка")
	assert.Equal(t, 5, res.Errors()[0].Line, "Ошибка указывает на строку 5")
	assert.True(t, grid.GetTile(2, 1, 0).IsTopSolid(), "Строки после ошибки применились")
	assert.True(t, grid.GetTile(1, 1, 0).IsTopSolid())
}

func TestParse_UnknownCommand(t *testing.T) {
	_, _, res := parseText(t, "grid 2 2 1\nfrobnicate 1 2 3\n")

	require.Len(t, res.Errors(), 1)
	assert.Contains(t, res.Errors()[0].Message, "неизвестная команда")
	assert.Equal(t, 2, res.Errors()[0].Line)
}

func TestParse_LaterDirectivesWin(t *testing.T) {
	text := `
grid 2 2 1
grid 5 5 2
tile_size 1.0
tile_size 4.0
`
	grid, _, res := parseText(t, text)
	assert.Empty(t, res.Errors())
	assert.Equal(t, vec.Vec3{X: 5, Y: 5, Z: 2}, grid.GetGridSize(), "Поздняя grid выигрывает")
	assert.Equal(t, 4.0, grid.GetTileSize(), "Поздний tile_size выигрывает")
}

func TestParse_TileBeforeGridDirective(t *testing.T) {
	// Двухпроходный разбор: tile до grid применяется к итоговой сетке
	text := `
tile 4 4 0 top=solid
grid 6 6 1
tile_size 3.0
`
	grid, _, res := parseText(t, text)
	assert.Empty(t, res.Errors())
	assert.True(t, grid.GetTile(4, 4, 0).IsTopSolid(),
		"Координаты валидируются против размера из grid, где бы она ни стояла")
}

func TestParse_OutOfBoundsTileIsWarning(t *testing.T) {
	_, _, res := parseText(t, "grid 2 2 1\ntile 5 0 0 top=solid\n")

	assert.Empty(t, res.Errors(), "Выход за сетку — предупреждение, не ошибка")
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, SeverityWarning, res.Diagnostics[0].Severity)
}

func TestParse_Fill(t *testing.T) {
	text := `
grid 4 4 2
tile_size 3.0
fill x=0-3 y=1 z=0 top=solid car=east_west
`
	grid, _, res := parseText(t, text)
	require.Empty(t, res.Errors())

	for x := 0; x < 4; x++ {
		tile := grid.GetTile(x, 1, 0)
		assert.True(t, tile.IsTopSolid(), "fill накрывает x=%d", x)
		assert.Equal(t, world.CarEastWest, tile.GetCarDirection())
	}
	assert.False(t, grid.GetTile(0, 0, 0).IsTopSolid(), "Вне диапазона не тронуто")
}

func TestParse_FillRequiresAllRanges(t *testing.T) {
	_, _, res := parseText(t, "grid 4 4 1\nfill x=0-3 y=0-3 top=solid\n")

	require.NotEmpty(t, res.Errors())
	assert.Contains(t, res.Errors()[0].Message, "диапазоны")
}

func TestParse_FillReversedRange(t *testing.T) {
	grid, _, res := parseText(t, "grid 4 4 1\nfill x=3-1 y=0 z=0 top=solid\n")

	assert.Empty(t, res.Errors(), "Перевёрнутый диапазон нормализуется")
	assert.True(t, grid.GetTile(1, 0, 0).IsTopSolid())
	assert.True(t, grid.GetTile(3, 0, 0).IsTopSolid())
	assert.False(t, grid.GetTile(0, 0, 0).IsTopSolid())
}

func TestParse_Vehicle(t *testing.T) {
	text := `
grid 4 4 1
tile_size 3.0
texture car assets/textures/car.png
tile 2 2 0 top=solid
vehicle 2 2 0 rotation=-45 size=2x4
`
	_, data, res := parseText(t, text)
	require.Empty(t, res.Errors())
	require.Len(t, data.VehicleSpawns, 1)

	spawn := data.VehicleSpawns[0]
	assert.Equal(t, vec.Vec3{X: 2, Y: 2, Z: 0}, spawn.GridPosition)
	assert.Equal(t, 315.0, spawn.RotationDegrees, "Поворот нормализован в [0, 360)")
	assert.Equal(t, 2.0, spawn.Size.X)
	assert.Equal(t, 4.0, spawn.Size.Y)
	assert.Equal(t, "assets/textures/car.png", spawn.TexturePath, "Текстура по умолчанию — алиас car")
}

func TestParse_VehicleNeedsSolidTop(t *testing.T) {
	text := `
grid 4 4 1
vehicle 1 1 0 rotation=0
`
	_, data, res := parseText(t, text)

	require.Len(t, res.Errors(), 1)
	assert.Contains(t, res.Errors()[0].Message, "сплошной тайл")
	assert.Empty(t, data.VehicleSpawns, "Машина без опоры отвергнута")
}

func TestParse_VehicleBeforeTileLine(t *testing.T) {
	// Опора проверяется после применения всех tile/fill, порядок строк
	// в файле не важен
	text := `
grid 4 4 1
vehicle 1 1 0 rotation=0
tile 1 1 0 top=solid
`
	_, data, res := parseText(t, text)

	assert.Empty(t, res.Errors())
	require.Len(t, data.VehicleSpawns, 1, "Машина до своего тайла — валидный уровень")
	assert.Equal(t, vec.Vec3{X: 1, Y: 1, Z: 0}, data.VehicleSpawns[0].GridPosition)
}

func TestParse_VehicleUpsert(t *testing.T) {
	text := `
grid 4 4 1
tile 1 1 0 top=solid
vehicle 1 1 0 rotation=0
vehicle 1 1 0 rotation=180
`
	_, data, res := parseText(t, text)
	require.Empty(t, res.Errors())
	require.Len(t, data.VehicleSpawns, 1, "Позиция — ключ")
	assert.Equal(t, 180.0, data.VehicleSpawns[0].RotationDegrees)
}

func TestParse_ReloadClearsSpawns(t *testing.T) {
	grid := world.NewTileGrid(vec.Vec3{X: 1, Y: 1, Z: 1}, 1.0)
	data := world.NewLevelData()

	first := "grid 2 2 1\ntile 0 0 0 top=solid\nvehicle 0 0 0\n"
	_, err := Parse(strings.NewReader(first), "first", grid, data)
	require.NoError(t, err)
	require.Len(t, data.VehicleSpawns, 1)

	second := "grid 2 2 1\n"
	_, err = Parse(strings.NewReader(second), "second", grid, data)
	require.NoError(t, err)
	assert.Empty(t, data.VehicleSpawns, "Полная перезагрузка стирает старые машины")
}

func TestParse_InvalidGridFails(t *testing.T) {
	grid := world.NewTileGrid(vec.Vec3{X: 2, Y: 2, Z: 1}, 3.0)
	data := world.NewLevelData()

	res, err := Parse(strings.NewReader("grid 0 5 1\n"), "bad", grid, data)
	assert.Error(t, err, "Невозможный размер сетки — фатальная ошибка разбора")
	assert.True(t, res.HasErrors())
}

func TestParse_StrictNumbers(t *testing.T) {
	_, _, res := parseText(t, "grid 2 2 1\ntile_size 3.0abc\n")
	require.Len(t, res.Errors(), 1, "Мусор после числа отвергается")

	_, _, res = parseText(t, "grid 2x 2 1\n")
	require.Len(t, res.Errors(), 1, "Нечисловой размер сетки отвергается")
}

func TestLoadLevel_MissingFile(t *testing.T) {
	grid := world.NewTileGrid(vec.Vec3{X: 1, Y: 1, Z: 1}, 1.0)
	res, err := LoadLevel("/nonexistent/level.txt", grid, world.NewLevelData())

	assert.Error(t, err)
	assert.Nil(t, res, "При недоступном файле результата нет")
}
