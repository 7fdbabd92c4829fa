package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/essence-field/internal/field"
	"github.com/annel0/essence-field/internal/logging"
	"github.com/annel0/essence-field/internal/middleware"
	"github.com/annel0/essence-field/internal/vec"
)

// RestServer отладочный REST сервис поверх рантайма поля.
// Отдаёт статистику поля и процесса для HUD/оверлеев и позволяет
// выполнить отладочный импульс.
type RestServer struct {
	router  *gin.Engine
	runtime *field.Runtime
	port    string
	metrics *ServerMetrics
	server  *http.Server
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port    string         // порт для запуска сервера, например ":8088"
	Runtime *field.Runtime // рантайм поля (обязателен)
}

// NewRestServer создает новый REST сервер
func NewRestServer(config Config) (*RestServer, error) {
	if config.Runtime == nil {
		return nil, fmt.Errorf("api: runtime обязателен")
	}
	if config.Port == "" {
		config.Port = ":8088"
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	loggerMw := middleware.NewRequestLogger()
	router.Use(loggerMw.Handler())

	router.Use(otelgin.Middleware("field_api"))

	promMw := middleware.NewPrometheusMiddleware("field_api")
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	server := &RestServer{
		router:  router,
		runtime: config.Runtime,
		port:    config.Port,
		metrics: NewServerMetrics(),
	}

	server.setupRoutes()
	return server, nil
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")
	{
		api.GET("/stats", rs.handleStats)
		api.GET("/cells", rs.handleCells)
		api.GET("/probes/:id", rs.handleProbe)
		api.POST("/debug/pulse", rs.handleDebugPulse)
	}
}

// Start запускает сервер в отдельной горутине
func (rs *RestServer) Start() {
	rs.server = &http.Server{
		Addr:    rs.port,
		Handler: rs.router,
	}

	go func() {
		if err := rs.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("Ошибка REST сервера: %v", err)
		}
	}()

	logging.Info("REST API запущен на %s", rs.port)
}

// Stop останавливает сервер с таймаутом
func (rs *RestServer) Stop() error {
	if rs.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return rs.server.Shutdown(ctx)
}

// handleHealth возвращает статус сервиса
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": rs.metrics.GetUptime(),
	})
}

// handleStats возвращает статистику поля и процесса
func (rs *RestServer) handleStats(c *gin.Context) {
	cpuUsage, err := rs.metrics.GetCPUUsage()
	if err != nil {
		cpuUsage = 0
	}

	c.JSON(http.StatusOK, gin.H{
		"field":     rs.runtime.Stats(),
		"uptime":    rs.metrics.GetUptime(),
		"memory_mb": rs.metrics.GetMemoryUsage(),
		"cpu_pct":   cpuUsage,
	})
}

// handleCells возвращает статистику занятости пространственного индекса
func (rs *RestServer) handleCells(c *gin.Context) {
	c.JSON(http.StatusOK, rs.runtime.CellStats())
}

// handleProbe возвращает запись одного зонда
func (rs *RestServer) handleProbe(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 0 || id >= rs.runtime.ProbeCount() {
		c.JSON(http.StatusNotFound, gin.H{"error": "неизвестный зонд"})
		return
	}

	p := rs.runtime.Probe(field.ProbeID(id))
	c.JSON(http.StatusOK, gin.H{
		"id":         id,
		"position":   []float64{p.Position.X, p.Position.Y, p.Position.Z},
		"color":      p.Color.String(),
		"remaining":  p.Remaining,
		"capacity":   p.Capacity,
		"density":    p.Density,
		"floor_id":   p.FloorID,
		"owner_id":   p.OwnerID,
		"fill_ratio": p.FillRatio(),
	})
}

// pulseRequest тело отладочного импульса
type pulseRequest struct {
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Z            float64 `json:"z"`
	Radius       float64 `json:"radius" binding:"required"`
	HeightUp     float64 `json:"height_up"`
	HeightDown   float64 `json:"height_down"`
	MaxTakeTotal float64 `json:"max_take_total"`
	FloorID      *int    `json:"floor_id"`
}

// handleDebugPulse выполняет импульс поглощения из отладочного запроса
func (rs *RestServer) handleDebugPulse(c *gin.Context) {
	var req pulseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	floorFilter := field.NoFloor
	if req.FloorID != nil {
		floorFilter = *req.FloorID
	}

	result := rs.runtime.PulseAbsorb(
		vec.Vec3Float{X: req.X, Y: req.Y, Z: req.Z},
		field.PulseConfig{
			Radius:        req.Radius,
			HeightUp:      req.HeightUp,
			HeightDown:    req.HeightDown,
			MaxTakeTotal:  req.MaxTakeTotal,
			FloorIDFilter: floorFilter,
		},
	)

	byColor := make(map[string]float64, field.ColorCount)
	for color, amount := range result.TakenByColor {
		if amount > 0 {
			byColor[field.Color(color).String()] = amount
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"total_taken":       result.TotalTaken,
		"by_color":          byColor,
		"candidates_tested": result.CandidatesTested,
		"probes_drained":    result.ProbesDrained,
		"drained_ids":       result.DrainedIDs,
	})
}
