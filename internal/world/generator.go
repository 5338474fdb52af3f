package world

import (
	"fmt"
	"math/rand"

	"github.com/aquilax/go-perlin"

	"github.com/annel0/tilecity/internal/vec"
)

// Пороги шума для застройки
const (
	buildingThreshold = 0.62 // выше - ставим здание
	parkThreshold     = 0.25 // ниже - пустой участок без застройки
)

// CityGenerator детерминированно заполняет сетку городским ландшафтом:
// сплошной нижний слой, дорожная сетка с направлениями трафика,
// кварталы зданий по шуму Перлина и несколько машин на дорогах.
type CityGenerator struct {
	Seed        int64
	NoiseScale  float64 // масштаб шума застройки
	RoadSpacing int     // период дорожной сетки в тайлах

	noise *perlin.Perlin
}

// NewCityGenerator создаёт генератор с указанным сидом
func NewCityGenerator(seed int64) *CityGenerator {
	alpha := 2.0  // сглаживание шума
	beta := 2.0   // частота шума
	n := int32(3) // количество октав

	return &CityGenerator{
		Seed:        seed,
		NoiseScale:  0.08,
		RoadSpacing: 4,
		noise:       perlin.NewPerlin(alpha, beta, n, seed),
	}
}

// noise2D возвращает значение шума в диапазоне [0, 1]
func (cg *CityGenerator) noise2D(x, y float64) float64 {
	return (cg.noise.Noise2D(x, y) + 1.0) / 2.0
}

// Generate заполняет сетку и данные уровня. Сетка должна быть уже
// построена (Initialize/Rebuild) и иметь хотя бы два слоя, чтобы было
// куда ставить здания.
func (cg *CityGenerator) Generate(grid *TileGrid, data *LevelData) error {
	size := grid.GetGridSize()
	if size.Z < 2 {
		return fmt.Errorf("генератору нужно минимум 2 слоя, сетка имеет %d", size.Z)
	}

	spacing := cg.RoadSpacing
	if spacing < 2 {
		spacing = 2
	}

	grassPath := grid.ResolveTexturePath("grass")
	roadPath := grid.ResolveTexturePath("road")
	wallPath := grid.ResolveTexturePath("wall")

	// Нижний слой: везде сплошная опора, на дорожных линиях - трафик
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			tile := grid.GetTile(x, y, 0)

			onNS := x%spacing == 0
			onEW := y%spacing == 0

			switch {
			case onNS && onEW:
				// Перекрёсток: направление берём от более длинной оси
				tile.SetTopSurface(true, roadPath, CarNone)
				if size.Y >= size.X {
					tile.SetCarDirection(CarNorthSouth)
				} else {
					tile.SetCarDirection(CarEastWest)
				}
			case onNS:
				tile.SetTopSurface(true, roadPath, CarNone)
				tile.SetCarDirection(CarNorthSouth)
			case onEW:
				tile.SetTopSurface(true, roadPath, CarNone)
				tile.SetCarDirection(CarEastWest)
			default:
				tile.SetTopSurface(true, grassPath, CarNone)
			}
		}
	}

	// Кварталы: по шуму решаем, где стоит здание
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			if x%spacing == 0 || y%spacing == 0 {
				continue // дороги не застраиваем
			}

			noise := cg.noise2D(float64(x)*cg.NoiseScale, float64(y)*cg.NoiseScale)
			if noise < buildingThreshold {
				continue
			}

			tile := grid.GetTile(x, y, 1)
			tile.SetTopSurface(true, wallPath, CarNone)
			for dir := WallDirection(0); dir < WallCount; dir++ {
				tile.SetWall(dir, false, wallPath)
			}
		}
	}

	// Несколько машин на дорогах; локальный rng для детерминированности
	rng := rand.New(rand.NewSource(cg.Seed))
	carCount := (size.X * size.Y) / 64
	if carCount < 1 {
		carCount = 1
	}

	for i := 0; i < carCount; i++ {
		var pos vec.Vec3
		var rotation float64
		if rng.Intn(2) == 0 {
			// На вертикальной дороге
			roadX := (rng.Intn((size.X+spacing-1)/spacing)) * spacing
			pos = vec.Vec3{X: roadX, Y: rng.Intn(size.Y), Z: 0}
			rotation = 0
		} else {
			roadY := (rng.Intn((size.Y+spacing-1)/spacing)) * spacing
			pos = vec.Vec3{X: rng.Intn(size.X), Y: roadY, Z: 0}
			rotation = 90
		}

		data.AddOrUpdateSpawn(grid, VehicleSpawn{
			GridPosition:    pos,
			RotationDegrees: rotation,
		})
	}

	return nil
}
