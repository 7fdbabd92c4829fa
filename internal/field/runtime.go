package field

import (
	"fmt"
	"sync"

	"github.com/annel0/essence-field/internal/logging"
	"github.com/annel0/essence-field/internal/vec"
)

// Runtime единственный владелец состояния поля зондов: хранилище,
// пространственный индекс, движок поглощения, планировщик восстановления
// и визуальный буфер. Экземпляр создаётся один раз при старте и явно
// передаётся коллабораторам (актёрам, рендеру, HUD) — никакого поиска
// через глобальные реестры.
//
// Модель кадровая: один вызов PulseAbsorb на действие актёра, один Tick
// на тик симуляции. Публичные методы сериализуются мьютексом: цикл
// симуляции и обработчики отладочного REST живут в разных горутинах,
// перекрывающихся мутаций хранилища быть не должно.
type Runtime struct {
	mu       sync.Mutex
	store    *ProbeStore
	index    *SpatialIndex
	engine   *AbsorptionEngine
	recovery *RecoveryScheduler
	visual   *PulseVisualBuffer
	clock    Clock
	metrics  *Metrics
	log      *logging.Logger
}

// Options параметры создания рантайма поля
type Options struct {
	CellSize        float64
	RecoverySeconds float64
	RecoveryDelay   float64
	Clock           Clock    // nil = монотонные часы процесса
	Metrics         *Metrics // nil = без метрик
}

// NewRuntime собирает рантайм поля из его компонентов
func NewRuntime(opts Options) *Runtime {
	clock := opts.Clock
	if clock == nil {
		clock = NewMonotonicClock()
	}

	index := NewSpatialIndex(opts.CellSize)
	store := NewProbeStore(index)
	visual := NewPulseVisualBuffer()

	return &Runtime{
		store:    store,
		index:    index,
		engine:   NewAbsorptionEngine(store, index, visual, clock),
		recovery: NewRecoveryScheduler(store, clock, opts.RecoverySeconds, opts.RecoveryDelay),
		visual:   visual,
		clock:    clock,
		metrics:  opts.Metrics,
		log:      logging.GetFieldLogger(),
	}
}

// RegisterProbe регистрирует статический зонд и возвращает его идентификатор
func (rt *Runtime) RegisterProbe(position vec.Vec3Float, color Color, capacity, density float64, floorID int) ProbeID {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	id := rt.store.Register(position, color, capacity, density, floorID)
	rt.metrics.observeTopology(rt.store.Count(), rt.index.CellCount())
	return id
}

// RegisterOwnedProbe регистрирует зонд, принадлежащий динамической сущности
func (rt *Runtime) RegisterOwnedProbe(position vec.Vec3Float, color Color, capacity, density float64, floorID, ownerID int) ProbeID {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	id := rt.store.RegisterOwned(position, color, capacity, density, floorID, ownerID)
	rt.metrics.observeTopology(rt.store.Count(), rt.index.CellCount())
	return id
}

// Probe возвращает копию записи зонда
func (rt *Runtime) Probe(id ProbeID) Probe {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.store.Get(id)
}

// ProbeCount возвращает число зарегистрированных зондов
func (rt *Runtime) ProbeCount() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.store.Count()
}

// QueryCylinder возвращает зонды внутри цилиндра; floorFilter = NoFloor
// отключает фильтр этажа
func (rt *Runtime) QueryCylinder(center vec.Vec3Float, radius, yMin, yMax float64, floorFilter int) []ProbeID {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.engine.QueryCylinder(center, radius, yMin, yMax, floorFilter)
}

// PulseAbsorb выполняет импульс поглощения в точке center
func (rt *Runtime) PulseAbsorb(center vec.Vec3Float, cfg PulseConfig) PulseResult {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	result := rt.engine.Pulse(center, cfg)

	rt.metrics.observePulse(&result)
	if result.ProbesDrained > 0 {
		rt.log.Debug("импульс (%.1f,%.1f,%.1f) r=%.1f: взято %.3f из %d зондов (кандидатов %d)",
			center.X, center.Y, center.Z, cfg.Radius,
			result.TotalTaken, result.ProbesDrained, result.CandidatesTested)
	}

	return result
}

// Tick выполняет один тик симуляции: восстановление задрейненных зондов
func (rt *Runtime) Tick(dt float64) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.recovery.Tick(dt)
}

// VisualBuffer возвращает буфер визуальных штампов для рендер-коллаборатора
func (rt *Runtime) VisualBuffer() *PulseVisualBuffer {
	return rt.visual
}

// Now возвращает текущее время внедрённых часов
func (rt *Runtime) Now() float64 {
	return rt.clock.Now()
}

// SpawnField детерминированно расставляет зонды по описаниям спавнеров.
// Возвращает общее число созданных зондов.
func (rt *Runtime) SpawnField(seed int64, spawners []Spawner) (int, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	fs := newFieldSpawner(rt.store, seed)

	total := 0
	for i := range spawners {
		n, err := fs.run(&spawners[i])
		if err != nil {
			return total, fmt.Errorf("спавнер %d: %w", i, err)
		}
		total += n
	}

	rt.metrics.observeTopology(rt.store.Count(), rt.index.CellCount())
	rt.log.Info("расставлено %d зондов (%d спавнеров, сид %d)", total, len(spawners), seed)
	return total, nil
}

// Stats сводная статистика поля для отладочных потребителей
type Stats struct {
	ProbeCount    int            `json:"probe_count"`
	ByColor       map[string]int `json:"by_color"`
	CellCount     int            `json:"cell_count"`
	MaxBucket     int            `json:"max_bucket"`
	AvgPerCell    float64        `json:"avg_per_cell"`
	VisualStamps  int            `json:"visual_stamps"`
	VisualClients int            `json:"visual_clients"`
}

// Stats возвращает статистику поля (только чтение, для HUD/оверлеев)
func (rt *Runtime) Stats() Stats {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	byColor := make(map[string]int, ColorCount)
	for color, n := range rt.store.CountByColor() {
		byColor[Color(color).String()] = n
	}

	_, maxBucket, avg := rt.index.OccupancyStats()

	return Stats{
		ProbeCount:    rt.store.Count(),
		ByColor:       byColor,
		CellCount:     rt.index.CellCount(),
		MaxBucket:     maxBucket,
		AvgPerCell:    avg,
		VisualStamps:  rt.visual.Count(),
		VisualClients: rt.visual.ConsumerCount(),
	}
}

// CellStats сводка занятости пространственного индекса
type CellStats struct {
	CellSize   float64 `json:"cell_size"`
	CellCount  int     `json:"cell_count"`
	Probes     int     `json:"probes"`
	MaxBucket  int     `json:"max_bucket"`
	AvgPerCell float64 `json:"avg_per_cell"`
}

// CellStats возвращает статистику ячеек индекса для отладочных оверлеев
func (rt *Runtime) CellStats() CellStats {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	total, maxBucket, avg := rt.index.OccupancyStats()

	return CellStats{
		CellSize:   rt.index.CellSize(),
		CellCount:  rt.index.CellCount(),
		Probes:     total,
		MaxBucket:  maxBucket,
		AvgPerCell: avg,
	}
}
