package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/annel0/tilecity/internal/level"
	"github.com/annel0/tilecity/internal/logging"
	"github.com/annel0/tilecity/internal/middleware"
	"github.com/annel0/tilecity/internal/storage"
	"github.com/annel0/tilecity/internal/vec"
	"github.com/annel0/tilecity/internal/world"
)

// RestServer представляет REST API сервер
type RestServer struct {
	router  *gin.Engine
	grid    *world.TileGrid
	data    *world.LevelData
	store   *storage.LevelStore
	port    string
	metrics *ServerMetrics

	// Ядро мира однопоточное, все мутации через API сериализуются.
	mu sync.Mutex
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port  string              // порт для запуска сервера
	Grid  *world.TileGrid     // сетка тайлов
	Data  *world.LevelData    // данные уровня (спавны транспорта)
	Store *storage.LevelStore // хранилище снапшотов, может быть nil
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8088"
	}

	// Устанавливаем режим релиза для gin
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	router.Use(middleware.RequestLogger())
	router.Use(middleware.PrometheusMiddleware())
	middleware.RegisterMetricsEndpoint(router)

	server := &RestServer{
		router:  router,
		grid:    config.Grid,
		data:    config.Data,
		store:   config.Store,
		port:    config.Port,
		metrics: NewServerMetrics(),
	}

	server.setupRoutes()

	return server
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")
	{
		api.GET("/stats", rs.handleStats)

		api.GET("/world", rs.handleWorldInfo)
		api.GET("/world/tile/:x/:y/:z", rs.handleGetTile)
		api.GET("/world/vehicles", rs.handleVehicles)
		api.GET("/world/occupy", rs.handleCanOccupy)

		api.POST("/level/load", rs.handleLevelLoad)
		api.GET("/level/export", rs.handleLevelExport)

		api.POST("/snapshots", rs.handleSnapshotSave)
		api.GET("/snapshots", rs.handleSnapshotList)
		api.GET("/snapshots/:id", rs.handleSnapshotGet)
		api.POST("/snapshots/:id/restore", rs.handleSnapshotRestore)
	}
}

// Start запускает REST сервер (блокирующий вызов)
func (rs *RestServer) Start() error {
	logging.Info("REST API сервер запускается на порту %s", rs.port)
	return rs.router.Run(rs.port)
}

func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": rs.metrics.GetUptime(),
	})
}

func (rs *RestServer) handleStats(c *gin.Context) {
	memory, _ := rs.metrics.GetMemoryUsage()
	cpuUsage, _ := rs.metrics.GetCPUUsage()

	rs.mu.Lock()
	size := rs.grid.GetGridSize()
	spawns := len(rs.data.VehicleSpawns)
	rs.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"uptime":       rs.metrics.GetUptime(),
		"memory_mb":    memory,
		"cpu_percent":  cpuUsage,
		"memory_stats": rs.metrics.GetDetailedMemoryStats(),
		"grid_size":    gin.H{"x": size.X, "y": size.Y, "z": size.Z},
		"vehicle_spawns": spawns,
	})
}

func (rs *RestServer) handleWorldInfo(c *gin.Context) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	size := rs.grid.GetGridSize()
	c.JSON(http.StatusOK, gin.H{
		"grid_size":      gin.H{"x": size.X, "y": size.Y, "z": size.Z},
		"tile_size":      rs.grid.GetTileSize(),
		"texture_aliases": rs.grid.GetTextureAliases(),
		"vehicle_spawns": len(rs.data.VehicleSpawns),
	})
}

// parseCoordParams читает :x/:y/:z из пути.
func parseCoordParams(c *gin.Context) (vec.Vec3, error) {
	x, err := strconv.Atoi(c.Param("x"))
	if err != nil {
		return vec.Vec3{}, fmt.Errorf("некорректная координата x: %v", err)
	}
	y, err := strconv.Atoi(c.Param("y"))
	if err != nil {
		return vec.Vec3{}, fmt.Errorf("некорректная координата y: %v", err)
	}
	z, err := strconv.Atoi(c.Param("z"))
	if err != nil {
		return vec.Vec3{}, fmt.Errorf("некорректная координата z: %v", err)
	}
	return vec.Vec3{X: x, Y: y, Z: z}, nil
}

func (rs *RestServer) handleGetTile(c *gin.Context) {
	pos, err := parseCoordParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	tile := rs.grid.GetTileVec(pos)
	if tile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "тайл вне границ сетки"})
		return
	}

	top := tile.GetTopSurface()
	walls := make(map[string]gin.H, world.WallCount)
	for d := world.WallDirection(0); d < world.WallCount; d++ {
		w := tile.GetWall(d)
		walls[d.String()] = gin.H{
			"walkable": w.Walkable,
			"texture":  w.TexturePath,
		}
	}

	world3 := tile.GetWorldPosition()
	c.JSON(http.StatusOK, gin.H{
		"grid_position":  gin.H{"x": pos.X, "y": pos.Y, "z": pos.Z},
		"world_position": gin.H{"x": world3.X, "y": world3.Y, "z": world3.Z},
		"top": gin.H{
			"solid":         top.Solid,
			"texture":       top.TexturePath,
			"car_direction": top.CarDirection.String(),
		},
		"walls":          walls,
		"ground_support": rs.grid.HasGroundSupport(pos),
		"is_road":        rs.grid.IsRoadTile(pos),
		"default":        tile.IsDefault(),
	})
}

func (rs *RestServer) handleVehicles(c *gin.Context) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	spawns := make([]gin.H, 0, len(rs.data.VehicleSpawns))
	for _, s := range rs.data.VehicleSpawns {
		spawns = append(spawns, gin.H{
			"position": gin.H{"x": s.GridPosition.X, "y": s.GridPosition.Y, "z": s.GridPosition.Z},
			"rotation": s.RotationDegrees,
			"size":     gin.H{"width": s.Size.X, "length": s.Size.Y},
			"texture":  s.TexturePath,
		})
	}
	c.JSON(http.StatusOK, gin.H{"vehicles": spawns})
}

// handleCanOccupy проверяет проходимость между двумя мировыми позициями.
// Параметры запроса: fx,fy,fz - старт, tx,ty,tz - цель.
func (rs *RestServer) handleCanOccupy(c *gin.Context) {
	readFloat := func(name string) (float64, bool) {
		v, err := strconv.ParseFloat(c.Query(name), 64)
		return v, err == nil
	}

	fx, ok1 := readFloat("fx")
	fy, ok2 := readFloat("fy")
	fz, ok3 := readFloat("fz")
	tx, ok4 := readFloat("tx")
	ty, ok5 := readFloat("ty")
	tz, ok6 := readFloat("tz")
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "нужны параметры fx,fy,fz,tx,ty,tz"})
		return
	}

	rs.mu.Lock()
	allowed := rs.grid.CanOccupy(
		vec.Vec3Float{X: fx, Y: fy, Z: fz},
		vec.Vec3Float{X: tx, Y: ty, Z: tz},
	)
	rs.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"allowed": allowed})
}

// handleLevelLoad принимает текст уровня в теле запроса и загружает его
// в мир. Диагностики разбора возвращаются клиенту; загрузка считается
// успешной, даже если часть строк не разобралась.
func (rs *RestServer) handleLevelLoad(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("не удалось прочитать тело запроса: %v", err)})
		return
	}

	rs.mu.Lock()
	result, err := level.Parse(bytes.NewReader(body), "api", rs.grid, rs.data)
	rs.mu.Unlock()

	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":       err.Error(),
			"diagnostics": diagnosticsJSON(result),
		})
		return
	}

	LevelLoadsTotal.Inc()
	for _, d := range result.Diagnostics {
		ParseDiagnosticsTotal.WithLabelValues(d.Severity.String()).Inc()
	}

	c.JSON(http.StatusOK, gin.H{
		"loaded":      true,
		"diagnostics": diagnosticsJSON(result),
	})
}

func diagnosticsJSON(result *level.Result) []gin.H {
	if result == nil {
		return nil
	}
	out := make([]gin.H, 0, len(result.Diagnostics))
	for _, d := range result.Diagnostics {
		out = append(out, gin.H{
			"line":     d.Line,
			"severity": d.Severity.String(),
			"message":  d.Message,
		})
	}
	return out
}

func (rs *RestServer) handleLevelExport(c *gin.Context) {
	rs.mu.Lock()
	var buf bytes.Buffer
	err := level.Write(&buf, rs.grid, rs.data)
	rs.mu.Unlock()

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	LevelSavesTotal.Inc()
	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}

func (rs *RestServer) handleSnapshotSave(c *gin.Context) {
	if rs.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "хранилище снапшотов не настроено"})
		return
	}

	rs.mu.Lock()
	var buf bytes.Buffer
	err := level.Write(&buf, rs.grid, rs.data)
	rs.mu.Unlock()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	id, err := rs.store.SaveSnapshot(buf.Bytes())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	SnapshotsTotal.Inc()
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (rs *RestServer) handleSnapshotList(c *gin.Context) {
	if rs.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "хранилище снапшотов не настроено"})
		return
	}

	metas, err := rs.store.ListSnapshots()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": metas})
}

func (rs *RestServer) handleSnapshotGet(c *gin.Context) {
	if rs.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "хранилище снапшотов не настроено"})
		return
	}

	text, err := rs.store.LoadSnapshot(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", text)
}

func (rs *RestServer) handleSnapshotRestore(c *gin.Context) {
	if rs.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "хранилище снапшотов не настроено"})
		return
	}

	id := c.Param("id")
	text, err := rs.store.LoadSnapshot(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	rs.mu.Lock()
	result, err := level.Parse(bytes.NewReader(text), "snapshot:"+id, rs.grid, rs.data)
	rs.mu.Unlock()
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":       err.Error(),
			"diagnostics": diagnosticsJSON(result),
		})
		return
	}

	LevelLoadsTotal.Inc()
	c.JSON(http.StatusOK, gin.H{
		"restored":    true,
		"id":          id,
		"diagnostics": diagnosticsJSON(result),
	})
}
