package level

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/annel0/tilecity/internal/logging"
	"github.com/annel0/tilecity/internal/world"
)

// Write сериализует состояние сетки и данных уровня в формат,
// пригодный для обратного разбора: grid, tile_size, отсортированные
// алиасы, по одной строке tile на каждую ячейку с состоянием, отличным
// от дефолтного, затем машины.
func Write(w io.Writer, grid *world.TileGrid, data *world.LevelData) error {
	aliases := grid.GetTextureAliases()

	aliasNames := make([]string, 0, len(aliases))
	for alias := range aliases {
		if alias != "" && aliases[alias] != "" {
			aliasNames = append(aliasNames, alias)
		}
	}
	sort.Strings(aliasNames)

	pathToAlias := make(map[string]string, len(aliasNames))
	for _, alias := range aliasNames {
		pathToAlias[aliases[alias]] = alias
	}

	// identifierForSave предпочитает имя алиаса сырому пути; значение,
	// которое само является алиасом, пишется как есть
	identifierForSave := func(value string) string {
		if value == "" {
			return ""
		}
		if _, isAlias := aliases[value]; isAlias {
			return value
		}
		if alias, ok := pathToAlias[value]; ok {
			return alias
		}
		return value
	}

	formatFloat := func(value float64) string {
		return strconv.FormatFloat(value, 'f', 2, 64)
	}

	var buf bytes.Buffer
	buf.WriteString("# Tile grid exported by editor\n")

	size := grid.GetGridSize()
	fmt.Fprintf(&buf, "grid %d %d %d\n", size.X, size.Y, size.Z)
	fmt.Fprintf(&buf, "tile_size %s\n", strconv.FormatFloat(grid.GetTileSize(), 'g', -1, 64))

	for _, alias := range aliasNames {
		fmt.Fprintf(&buf, "texture %s %s\n", alias, aliases[alias])
	}

	for z := 0; z < size.Z; z++ {
		for y := 0; y < size.Y; y++ {
			for x := 0; x < size.X; x++ {
				tile := grid.GetTile(x, y, z)
				if tile == nil {
					continue
				}

				var properties []string
				top := tile.GetTopSurface()

				if top.Solid {
					prop := "top=solid"
					if id := identifierForSave(top.TexturePath); id != "" {
						prop += ":" + id
					}
					properties = append(properties, prop)
				}

				if top.CarDirection != world.CarNone {
					properties = append(properties, "car="+top.CarDirection.String())
				}

				for dir := world.WallDirection(0); dir < world.WallCount; dir++ {
					wall := tile.GetWall(dir)
					if wall.Walkable && wall.TexturePath == "" {
						continue
					}

					state := "solid"
					if wall.Walkable {
						state = "walkable"
					}
					entry := dir.String() + "=" + state
					if id := identifierForSave(wall.TexturePath); id != "" {
						entry += ":" + id
					}
					properties = append(properties, entry)
				}

				if len(properties) == 0 {
					continue
				}

				fmt.Fprintf(&buf, "tile %d %d %d", x, y, z)
				for _, prop := range properties {
					buf.WriteByte(' ')
					buf.WriteString(prop)
				}
				buf.WriteByte('\n')
			}
		}
	}

	// Машины после тайлов: при разборе точка появления требует уже
	// сплошную поверхность в целевой ячейке
	for _, spawn := range data.VehicleSpawns {
		fmt.Fprintf(&buf, "vehicle %d %d %d rotation=%s",
			spawn.GridPosition.X, spawn.GridPosition.Y, spawn.GridPosition.Z,
			formatFloat(spawn.RotationDegrees))
		if spawn.TexturePath != "" {
			fmt.Fprintf(&buf, " texture=%s", identifierForSave(spawn.TexturePath))
		}
		fmt.Fprintf(&buf, " size=%sx%s\n", formatFloat(spawn.Size.X), formatFloat(spawn.Size.Y))
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// SaveLevel записывает уровень в файл. Выход полностью собирается в
// памяти до открытия файла, так что единственный режим отказа - сама
// запись.
func SaveLevel(filePath string, grid *world.TileGrid, data *world.LevelData) error {
	var buf bytes.Buffer
	if err := Write(&buf, grid, data); err != nil {
		return err
	}

	if err := os.WriteFile(filePath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("сохранение уровня в %s: %w", filePath, err)
	}

	logging.Info("Уровень сохранён в файл: %s", filePath)
	return nil
}
