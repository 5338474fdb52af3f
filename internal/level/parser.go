package level

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/annel0/tilecity/internal/logging"
	"github.com/annel0/tilecity/internal/vec"
	"github.com/annel0/tilecity/internal/world"
)

// Формат уровня — строчный DSL: первый токен строки выбирает команду,
// остальные токены - позиционные числа или пары key=value без кавычек
// и экранирования. '#' начинает комментарий, пустые строки игнорируются.
//
// Разбор идёт в несколько проходов: сначала собираются `grid`,
// `tile_size` и `texture`, сетка перестраивается ровно один раз, затем
// применяются `tile` и `fill` уже к сетке правильного размера, и только
// после них `vehicle` — чтобы проверка опоры видела итоговое состояние
// тайлов. Плохая строка отключает только собственный эффект и попадает
// в Result.

type parsedLine struct {
	number  int
	content string
}

// sanitizeLine отрезает комментарий и пробелы по краям
func sanitizeLine(raw string) string {
	if idx := strings.IndexByte(raw, '#'); idx >= 0 {
		raw = raw[:idx]
	}
	return strings.TrimSpace(raw)
}

// parseIntStrict разбирает целое без мусора после литерала
func parseIntStrict(text string) (int, bool) {
	value, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, false
	}
	return value, true
}

// parseFloatStrict разбирает float без мусора после литерала
func parseFloatStrict(text string) (float64, bool) {
	value, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// parseRangeToken разбирает "a-b" или одиночное "a" в инклюзивный диапазон
func parseRangeToken(text string) (int, int, bool) {
	trimmed := strings.TrimSpace(text)
	dash := strings.IndexByte(trimmed, '-')
	if dash < 0 {
		value, ok := parseIntStrict(trimmed)
		if !ok {
			return 0, 0, false
		}
		return value, value, true
	}

	start, okStart := parseIntStrict(trimmed[:dash])
	end, okEnd := parseIntStrict(trimmed[dash+1:])
	if !okStart || !okEnd {
		return 0, 0, false
	}
	if start > end {
		start, end = end, start
	}
	return start, end, true
}

// wallKeyToDir распознаёт ключ стены: north|n, south|s, east|e, west|w,
// опционально с префиксом wall_ и разделителями '_'/'-'.
func wallKeyToDir(key string) (world.WallDirection, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.Map(func(r rune) rune {
		if r == '_' || r == '-' {
			return -1
		}
		return r
	}, key)
	key = strings.TrimPrefix(key, "wall")

	switch key {
	case "n", "north":
		return world.North, true
	case "s", "south":
		return world.South, true
	case "e", "east":
		return world.East, true
	case "w", "west":
		return world.West, true
	}
	return 0, false
}

// parseCarDirectionValue распознаёт значение направления трафика
func parseCarDirectionValue(value string) (world.CarDirection, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "none", "off":
		return world.CarNone, true
	case "north":
		return world.CarNorth, true
	case "south":
		return world.CarSouth, true
	case "east":
		return world.CarEast, true
	case "west":
		return world.CarWest, true
	case "northsouth", "north_south", "ns":
		return world.CarNorthSouth, true
	case "eastwest", "east_west", "ew":
		return world.CarEastWest, true
	}
	return world.CarNone, false
}

type wallConfig struct {
	specified bool
	walkable  bool
	textureID string
}

type tileConfig struct {
	topSpecified bool
	topSolid     bool
	topTextureID string
	carSpecified bool
	carDirection world.CarDirection
	walls        [world.WallCount]wallConfig
}

// parseWallValue разбирает значение стены: walkable|open|passable или
// solid|blocked|wall|closed, опционально с ":textureId".
func parseWallValue(value string, wall *wallConfig, res *Result, line int) bool {
	trimmed := strings.TrimSpace(value)
	state := trimmed
	texture := ""
	if colon := strings.IndexByte(trimmed, ':'); colon >= 0 {
		state = strings.TrimSpace(trimmed[:colon])
		texture = strings.TrimSpace(trimmed[colon+1:])
	}

	switch strings.ToLower(state) {
	case "walkable", "open", "passable":
		wall.walkable = true
	case "solid", "blocked", "wall", "closed":
		wall.walkable = false
	default:
		res.errorf(line, "неизвестное состояние стены: %s", state)
		return false
	}

	wall.textureID = texture
	wall.specified = true
	return true
}

// parseTileProperty разбирает одну пару key=value команды tile/fill
func parseTileProperty(key, value string, cfg *tileConfig, res *Result, line int) bool {
	lowerKey := strings.ToLower(strings.TrimSpace(key))

	if lowerKey == "top" {
		trimmed := strings.TrimSpace(value)
		lowerValue := strings.ToLower(trimmed)
		cfg.topSpecified = true

		switch {
		case lowerValue == "none" || lowerValue == "off" || lowerValue == "false":
			cfg.topSolid = false
			cfg.topTextureID = ""
			return true
		case strings.HasPrefix(lowerValue, "solid"):
			cfg.topSolid = true
			cfg.topTextureID = ""
			if colon := strings.IndexByte(trimmed, ':'); colon >= 0 && colon+1 < len(trimmed) {
				cfg.topTextureID = strings.TrimSpace(trimmed[colon+1:])
			}
			return true
		}
		res.errorf(line, "неизвестная конфигурация верха: %s", value)
		return false
	}

	if lowerKey == "car" || lowerKey == "cardirection" || lowerKey == "traffic" {
		dir, ok := parseCarDirectionValue(value)
		if !ok {
			res.errorf(line, "неизвестное направление трафика: %s", value)
			return false
		}
		cfg.carSpecified = true
		cfg.carDirection = dir
		return true
	}

	if dir, ok := wallKeyToDir(lowerKey); ok {
		return parseWallValue(value, &cfg.walls[dir], res, line)
	}

	res.errorf(line, "неизвестный ключ свойства: %s", key)
	return false
}

// applyTileConfig применяет разобранные свойства к тайлу. Текстуры
// резолвятся и грузятся через ту же сетку, чтобы алиасы и кеш
// оставались едиными.
func applyTileConfig(grid *world.TileGrid, tile *world.Tile, cfg *tileConfig) {
	if cfg.topSpecified {
		if cfg.topSolid {
			resolved := grid.ResolveTexturePath(cfg.topTextureID)
			tile.SetTopSurface(true, resolved, world.CarNone)
			if resolved != "" {
				if texture := grid.LoadTextureFromPath(resolved); texture != nil {
					tile.SetTopTexture(texture)
				}
			}
		} else {
			tile.SetTopSurface(false, "", world.CarNone)
		}
	}

	if cfg.carSpecified {
		tile.SetCarDirection(cfg.carDirection)
	}

	for dir := world.WallDirection(0); dir < world.WallCount; dir++ {
		wall := cfg.walls[dir]
		if !wall.specified {
			continue
		}

		resolved := ""
		if wall.textureID != "" {
			resolved = grid.ResolveTexturePath(wall.textureID)
		}

		tile.SetWall(dir, wall.walkable, resolved)

		if resolved != "" {
			if texture := grid.LoadTextureFromPath(resolved); texture != nil {
				tile.SetWallTexture(dir, texture)
			}
		}
	}
}

type keyValue struct {
	key   string
	value string
}

// collectKeyValues проверяет, что каждый токен имеет вид key=value
func collectKeyValues(tokens []string, res *Result, line int) ([]keyValue, bool) {
	entries := make([]keyValue, 0, len(tokens))
	valid := true
	for _, token := range tokens {
		eq := strings.IndexByte(token, '=')
		if eq < 0 {
			res.errorf(line, "ожидалась пара key=value, найдено '%s'", token)
			valid = false
			continue
		}
		entries = append(entries, keyValue{
			key:   strings.TrimSpace(token[:eq]),
			value: strings.TrimSpace(token[eq+1:]),
		})
	}
	return entries, valid
}

// parseVehicleProperty разбирает одну пару key=value команды vehicle
func parseVehicleProperty(key, value string, spawn *world.VehicleSpawn, grid *world.TileGrid, res *Result, line int) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "rotation", "angle", "yaw":
		rotation, ok := parseFloatStrict(value)
		if !ok {
			res.errorf(line, "недопустимое значение поворота: %s", value)
			return false
		}
		spawn.RotationDegrees = rotation
		return true

	case "texture", "tex":
		spawn.TexturePath = grid.ResolveTexturePath(strings.TrimSpace(value))
		return true

	case "size", "dimensions":
		trimmed := strings.TrimSpace(value)
		sep := strings.IndexAny(trimmed, "xX,")
		if sep < 0 {
			res.errorf(line, "недопустимый формат размера: %s", value)
			return false
		}
		width, okW := parseFloatStrict(trimmed[:sep])
		length, okL := parseFloatStrict(trimmed[sep+1:])
		if !okW || !okL {
			res.errorf(line, "недопустимые значения размера: %s", value)
			return false
		}
		if width <= 0 || length <= 0 {
			res.errorf(line, "размер машины должен быть положительным")
			return false
		}
		spawn.Size = vec.Vec2Float{X: width, Y: length}
		return true
	}

	res.errorf(line, "неизвестное свойство машины: %s", key)
	return false
}

// parseCoords разбирает три целых координаты из начала токенов
func parseCoords(tokens []string) (vec.Vec3, []string, bool) {
	if len(tokens) < 3 {
		return vec.Vec3{}, nil, false
	}
	x, okX := parseIntStrict(tokens[0])
	y, okY := parseIntStrict(tokens[1])
	z, okZ := parseIntStrict(tokens[2])
	if !okX || !okY || !okZ {
		return vec.Vec3{}, nil, false
	}
	return vec.Vec3{X: x, Y: y, Z: z}, tokens[3:], true
}

// Parse читает уровень из r и заполняет grid и data. Диагностики
// собираются в Result; ошибка возвращается только если сетку не удалось
// перестроить под заданные размеры (или чтение сорвалось).
func Parse(r io.Reader, name string, grid *world.TileGrid, data *world.LevelData) (*Result, error) {
	res := &Result{FilePath: name}

	var lines []parsedLine
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		content := sanitizeLine(scanner.Text())
		if content == "" {
			continue
		}
		lines = append(lines, parsedLine{number: lineNumber, content: content})
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("чтение уровня %s: %w", name, err)
	}

	// Полная перезагрузка: прежние точки появления не переживают её
	data.Clear()

	// Первый проход: директивы, влияющие на размер сетки и алиасы.
	// Поздние строки переопределяют ранние.
	parsedSize := grid.GetGridSize()
	parsedTileSize := grid.GetTileSize()

	for _, line := range lines {
		tokens := strings.Fields(line.content)
		cmd := strings.ToLower(tokens[0])

		switch cmd {
		case "grid":
			if len(tokens) != 4 {
				res.errorf(line.number, "после 'grid' ожидаются три целых числа")
				continue
			}
			w, okW := parseIntStrict(tokens[1])
			h, okH := parseIntStrict(tokens[2])
			d, okD := parseIntStrict(tokens[3])
			if !okW || !okH || !okD {
				res.errorf(line.number, "после 'grid' ожидаются три целых числа")
				continue
			}
			parsedSize = vec.Vec3{X: w, Y: h, Z: d}

		case "tile_size", "tilesize":
			if len(tokens) != 2 {
				res.errorf(line.number, "после 'tile_size' ожидается числовое значение")
				continue
			}
			value, ok := parseFloatStrict(tokens[1])
			if !ok || value <= 0 {
				res.errorf(line.number, "недопустимый размер тайла: %s", tokens[1])
				continue
			}
			parsedTileSize = value

		case "texture", "alias":
			if len(tokens) != 3 {
				res.errorf(line.number, "ожидается 'texture <alias> <path>'")
				continue
			}
			grid.RegisterTextureAlias(tokens[1], tokens[2])

		case "tile", "fill", "vehicle":
			// второй проход

		default:
			res.errorf(line.number, "неизвестная команда: %s", tokens[0])
		}
	}

	// Сетка перестраивается ровно один раз, до применения тайлов
	if err := grid.Configure(parsedSize, parsedTileSize); err != nil {
		res.errorf(0, "перестройка сетки: %v", err)
		return res, fmt.Errorf("уровень %s: %w", name, err)
	}

	// Второй проход: мутации тайлов и машины
	for _, line := range lines {
		tokens := strings.Fields(line.content)
		cmd := strings.ToLower(tokens[0])

		switch cmd {
		case "tile":
			pos, rest, ok := parseCoords(tokens[1:])
			if !ok {
				res.errorf(line.number, "после 'tile' ожидаются координаты")
				continue
			}

			entries, valid := collectKeyValues(rest, res, line.number)
			cfg := &tileConfig{}
			for _, entry := range entries {
				if !parseTileProperty(entry.key, entry.value, cfg, res, line.number) {
					valid = false
				}
			}
			if !valid {
				continue
			}

			if !grid.IsValidPositionVec(pos) {
				res.warnf(line.number, "координаты тайла вне сетки: (%d, %d, %d)", pos.X, pos.Y, pos.Z)
				continue
			}

			applyTileConfig(grid, grid.GetTileVec(pos), cfg)

		case "fill":
			entries, valid := collectKeyValues(tokens[1:], res, line.number)

			var xStart, xEnd, yStart, yEnd, zStart, zEnd int
			var hasX, hasY, hasZ bool
			cfg := &tileConfig{}

			for _, entry := range entries {
				switch strings.ToLower(entry.key) {
				case "x":
					if s, e, ok := parseRangeToken(entry.value); ok {
						xStart, xEnd, hasX = s, e, true
					} else {
						res.errorf(line.number, "недопустимый диапазон x: %s", entry.value)
						valid = false
					}
				case "y":
					if s, e, ok := parseRangeToken(entry.value); ok {
						yStart, yEnd, hasY = s, e, true
					} else {
						res.errorf(line.number, "недопустимый диапазон y: %s", entry.value)
						valid = false
					}
				case "z":
					if s, e, ok := parseRangeToken(entry.value); ok {
						zStart, zEnd, hasZ = s, e, true
					} else {
						res.errorf(line.number, "недопустимый диапазон z: %s", entry.value)
						valid = false
					}
				default:
					if !parseTileProperty(entry.key, entry.value, cfg, res, line.number) {
						valid = false
					}
				}
			}

			if !hasX || !hasY || !hasZ {
				res.errorf(line.number, "команде fill нужны диапазоны x=, y= и z=")
				valid = false
			}
			if !valid {
				continue
			}

			for z := zStart; z <= zEnd; z++ {
				for y := yStart; y <= yEnd; y++ {
					for x := xStart; x <= xEnd; x++ {
						if !grid.IsValidPosition(x, y, z) {
							res.warnf(line.number, "цель fill вне сетки: (%d, %d, %d)", x, y, z)
							continue
						}
						applyTileConfig(grid, grid.GetTile(x, y, z), cfg)
					}
				}
			}

		case "vehicle":
			// третий проход
		}
	}

	// Третий проход: машины. Проверка опоры идёт против уже
	// применённых tile/fill, где бы строка vehicle ни стояла в файле.
	for _, line := range lines {
		tokens := strings.Fields(line.content)
		if strings.ToLower(tokens[0]) != "vehicle" {
			continue
		}

		pos, rest, ok := parseCoords(tokens[1:])
		if !ok {
			res.errorf(line.number, "после 'vehicle' ожидаются координаты")
			continue
		}

		spawn := world.VehicleSpawn{GridPosition: pos}
		entries, valid := collectKeyValues(rest, res, line.number)
		for _, entry := range entries {
			if !parseVehicleProperty(entry.key, entry.value, &spawn, grid, res, line.number) {
				valid = false
			}
		}
		if !valid {
			continue
		}

		if !grid.IsValidPositionVec(pos) {
			res.errorf(line.number, "координаты машины вне сетки: (%d, %d, %d)", pos.X, pos.Y, pos.Z)
			continue
		}

		// Машине нужна сплошная поверхность в целевой ячейке.
		// Проверка только на момент определения: редактор может
		// убрать опору позже, это не ревалидируется.
		supportTile := grid.GetTileVec(pos)
		if supportTile == nil || !supportTile.IsTopSolid() {
			res.errorf(line.number, "точке появления машины нужен сплошной тайл в целевой позиции")
			continue
		}

		data.AddOrUpdateSpawn(grid, spawn)
	}

	return res, nil
}

// LoadLevel читает уровень из файла и заполняет grid и data.
// Возвращает ошибку только если файл не открылся или сетку не удалось
// перестроить; построчные проблемы копятся в Result.
func LoadLevel(filePath string, grid *world.TileGrid, data *world.LevelData) (*Result, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("открытие файла уровня %s: %w", filePath, err)
	}
	defer file.Close()

	res, err := Parse(file, filePath, grid, data)
	if err != nil {
		return res, err
	}

	if errorCount := len(res.Errors()); errorCount > 0 {
		logging.Warn("Уровень %s загружен с %d ошибками", filePath, errorCount)
	} else {
		logging.Info("Уровень загружен из файла: %s", filePath)
	}
	return res, nil
}
