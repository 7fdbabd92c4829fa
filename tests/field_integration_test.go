package tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/essence-field/internal/field"
	"github.com/annel0/essence-field/internal/vec"
)

// stampSink тестовый рендер-коллаборатор, принимающий упакованные массивы
type stampSink struct {
	geometry [field.VisualSlots][4]float32
	timing   [field.VisualSlots][4]float32
	updates  int
	alive    bool
}

func (s *stampSink) OnStampsUpdated(geometry, timing [field.VisualSlots][4]float32) {
	s.geometry = geometry
	s.timing = timing
	s.updates++
}

func (s *stampSink) Valid() bool { return s.alive }

func newRuntime(t *testing.T, recoverySeconds, recoveryDelay float64, clock *field.ManualClock) *field.Runtime {
	t.Helper()
	return field.NewRuntime(field.Options{
		CellSize:        8.0,
		RecoverySeconds: recoverySeconds,
		RecoveryDelay:   recoveryDelay,
		Clock:           clock,
	})
}

// Полный цикл жизни поля: расстановка, импульс, восстановление, повторный импульс.
func TestFieldLifecycle(t *testing.T) {
	clock := &field.ManualClock{Current: 10}
	rt := newRuntime(t, 10, 0, clock)

	a := rt.RegisterProbe(vec.Vec3Float{X: 0, Y: 0, Z: 0}, field.ColorRed, 10, 1.0, field.NoFloor)
	b := rt.RegisterProbe(vec.Vec3Float{X: 5, Y: 0, Z: 0}, field.ColorBlue, 10, 1.0, field.NoFloor)

	cfg := field.PulseConfig{
		Radius:        6,
		HeightUp:      2,
		HeightDown:    2,
		MaxTakeTotal:  100,
		FloorIDFilter: field.NoFloor,
	}

	result := rt.PulseAbsorb(vec.Vec3Float{}, cfg)
	require.Equal(t, 2, result.ProbesDrained)
	assert.Equal(t, []field.ProbeID{a, b}, result.DrainedIDs)
	assert.InDelta(t, 20.0, result.TotalTaken, 1e-9)

	// Оба зонда пусты; повторный импульс нулевой
	second := rt.PulseAbsorb(vec.Vec3Float{}, cfg)
	assert.Zero(t, second.TotalTaken)
	assert.Zero(t, second.ProbesDrained)

	// 5 секунд восстановления при recoverySeconds=10 — половина ёмкости
	for i := 0; i < 100; i++ {
		clock.Advance(0.05)
		rt.Tick(0.05)
	}
	assert.InDelta(t, 5.0, rt.Probe(a).Remaining, 1e-6)
	assert.InDelta(t, 5.0, rt.Probe(b).Remaining, 1e-6)

	// Инвариант запаса после всей серии
	for _, id := range []field.ProbeID{a, b} {
		p := rt.Probe(id)
		assert.GreaterOrEqual(t, p.Remaining, 0.0)
		assert.LessOrEqual(t, p.Remaining, p.Capacity)
	}
}

// Порядок дрейна между несколькими импульсами в одном тике: первый
// вызов выигрывает ближайшие зонды.
func TestPulseOrderWithinTick(t *testing.T) {
	clock := &field.ManualClock{Current: 10}
	rt := newRuntime(t, 0, 0, clock)

	near := rt.RegisterProbe(vec.Vec3Float{X: 1, Y: 0, Z: 0}, field.ColorRed, 10, 1.0, field.NoFloor)

	cfg := field.PulseConfig{Radius: 4, HeightUp: 1, HeightDown: 1, MaxTakeTotal: 100, FloorIDFilter: field.NoFloor}

	first := rt.PulseAbsorb(vec.Vec3Float{}, cfg)
	second := rt.PulseAbsorb(vec.Vec3Float{}, cfg)

	require.Equal(t, []field.ProbeID{near}, first.DrainedIDs)
	assert.Empty(t, second.DrainedIDs)
	assert.Zero(t, second.TotalTaken)
}

func TestQueryCylinderSurface(t *testing.T) {
	clock := &field.ManualClock{Current: 0}
	rt := newRuntime(t, 0, 0, clock)

	inRange := rt.RegisterProbe(vec.Vec3Float{X: 1, Y: 0.5, Z: 1}, field.ColorGreen, 10, 1.0, 2)
	rt.RegisterProbe(vec.Vec3Float{X: 1, Y: 9, Z: 1}, field.ColorGreen, 10, 1.0, 2)   // вне вертикального окна
	rt.RegisterProbe(vec.Vec3Float{X: 40, Y: 0.5, Z: 1}, field.ColorGreen, 10, 1.0, 2) // вне радиуса
	rt.RegisterProbe(vec.Vec3Float{X: 1, Y: 0.5, Z: 2}, field.ColorGreen, 10, 1.0, 5)  // чужой этаж

	ids := rt.QueryCylinder(vec.Vec3Float{}, 5, -1, 1, 2)
	assert.Equal(t, []field.ProbeID{inRange}, ids)
}

// Визуальный буфер получает штампы от импульсов и рассылает их потребителям.
func TestVisualBufferIntegration(t *testing.T) {
	clock := &field.ManualClock{Current: 42}
	rt := newRuntime(t, 0, 0, clock)

	rt.RegisterProbe(vec.Vec3Float{X: 1, Y: 0, Z: 0}, field.ColorRed, 10, 1.0, field.NoFloor)

	sink := &stampSink{alive: true}
	token := rt.VisualBuffer().RegisterConsumer(sink)
	require.Equal(t, 1, sink.updates)

	cfg := field.PulseConfig{Radius: 3, HeightUp: 2, HeightDown: 1, MaxTakeTotal: 5, FloorIDFilter: field.NoFloor}
	rt.PulseAbsorb(vec.Vec3Float{X: 0, Y: 0, Z: 0}, cfg)

	require.Equal(t, 2, sink.updates)
	assert.Equal(t, [4]float32{0, 0, -1, 2}, sink.geometry[0], "геометрия штампа (centerX, centerZ, yMin, yMax)")
	assert.Equal(t, [4]float32{3, 42, 0, 0}, sink.timing[0], "тайминг штампа (radius, creationTime, 0, 0)")

	// Импульс без дрейна не публикует штамп
	rt.PulseAbsorb(vec.Vec3Float{X: 100, Y: 0, Z: 100}, cfg)
	assert.Equal(t, 2, sink.updates)

	rt.VisualBuffer().UnregisterConsumer(token)
	assert.Zero(t, rt.VisualBuffer().ConsumerCount())
}

func TestRuntimeStats(t *testing.T) {
	clock := &field.ManualClock{Current: 0}
	rt := newRuntime(t, 0, 0, clock)

	n, err := rt.SpawnField(5, []field.Spawner{{
		Shape:    field.ShapeGrid,
		Rows:     3,
		Cols:     3,
		Step:     4,
		Capacity: 10,
		Density:  1.0,
		FloorID:  field.NoFloor,
	}})
	require.NoError(t, err)
	require.Equal(t, 9, n)

	stats := rt.Stats()
	assert.Equal(t, 9, stats.ProbeCount)
	assert.Positive(t, stats.CellCount)

	total := 0
	for _, count := range stats.ByColor {
		total += count
	}
	assert.Equal(t, 9, total, "сумма по цветам должна равняться числу зондов")
}
