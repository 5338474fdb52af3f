package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCityGenerator_RequiresTwoLayers(t *testing.T) {
	grid := newTestGrid(t, 4, 4, 1)
	gen := NewCityGenerator(1)

	assert.Error(t, gen.Generate(grid, NewLevelData()), "Один слой — зданиям некуда встать")
}

func TestCityGenerator_RoadsAndGround(t *testing.T) {
	grid := newTestGrid(t, 8, 8, 2)
	gen := NewCityGenerator(42)
	data := NewLevelData()

	require.NoError(t, gen.Generate(grid, data))

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			tile := grid.GetTile(x, y, 0)
			assert.True(t, tile.IsTopSolid(), "Нижний слой сплошной в (%d,%d)", x, y)
		}
	}

	// Линии дорожной сетки несут трафик
	assert.Equal(t, CarNorthSouth, grid.GetTile(4, 2, 0).GetCarDirection(),
		"Вертикальная дорога на x=4")
	assert.Equal(t, CarEastWest, grid.GetTile(2, 4, 0).GetCarDirection(),
		"Горизонтальная дорога на y=4")
	assert.Equal(t, CarNone, grid.GetTile(1, 1, 0).GetCarDirection(),
		"Внутри квартала трафика нет")
}

func TestCityGenerator_Deterministic(t *testing.T) {
	gridA := newTestGrid(t, 12, 12, 2)
	gridB := newTestGrid(t, 12, 12, 2)
	dataA := NewLevelData()
	dataB := NewLevelData()

	require.NoError(t, NewCityGenerator(7).Generate(gridA, dataA))
	require.NoError(t, NewCityGenerator(7).Generate(gridB, dataB))

	size := gridA.GetGridSize()
	for z := 0; z < size.Z; z++ {
		for y := 0; y < size.Y; y++ {
			for x := 0; x < size.X; x++ {
				a := gridA.GetTile(x, y, z)
				b := gridB.GetTile(x, y, z)
				assert.Equal(t, a.IsTopSolid(), b.IsTopSolid(),
					"Верх должен совпадать в (%d,%d,%d)", x, y, z)
				assert.Equal(t, a.GetCarDirection(), b.GetCarDirection(),
					"Трафик должен совпадать в (%d,%d,%d)", x, y, z)
			}
		}
	}
	assert.Equal(t, dataA.VehicleSpawns, dataB.VehicleSpawns, "Одинаковый сид — одинаковые машины")
}

func TestCityGenerator_SpawnsOnRoads(t *testing.T) {
	grid := newTestGrid(t, 16, 16, 2)
	data := NewLevelData()

	require.NoError(t, NewCityGenerator(3).Generate(grid, data))
	require.NotEmpty(t, data.VehicleSpawns, "Генератор ставит хотя бы одну машину")

	for _, spawn := range data.VehicleSpawns {
		assert.True(t, grid.IsRoadTile(spawn.GridPosition),
			"Машина на (%v) должна стоять на дороге", spawn.GridPosition)
		assert.True(t, grid.GetTileVec(spawn.GridPosition).IsTopSolid())
	}
}

func TestCityGenerator_BuildingsOffRoads(t *testing.T) {
	grid := newTestGrid(t, 16, 16, 2)
	require.NoError(t, NewCityGenerator(99).Generate(grid, NewLevelData()))

	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			tile := grid.GetTile(x, y, 1)
			if x%4 == 0 || y%4 == 0 {
				assert.False(t, tile.IsTopSolid(), "Здание не может стоять на дороге (%d,%d)", x, y)
			}
			if tile.IsTopSolid() {
				for dir := WallDirection(0); dir < WallCount; dir++ {
					assert.False(t, tile.IsWallWalkable(dir), "Стены здания непроходимы")
				}
			}
		}
	}
}
