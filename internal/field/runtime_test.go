package field

import (
	"sync"
	"testing"

	"github.com/annel0/essence-field/internal/vec"
)

// Цикл симуляции и обработчики отладочного REST живут в разных горутинах;
// публичные методы рантайма обязаны сериализовать доступ к хранилищу.
// Под -race тест ловит перекрывающиеся мутации Remaining.
func TestRuntimeConcurrentTickAndPulse(t *testing.T) {
	rt := NewRuntime(Options{
		CellSize:        8.0,
		RecoverySeconds: 1,
		RecoveryDelay:   0,
	})

	for i := 0; i < 30; i++ {
		rt.RegisterProbe(vec.Vec3Float{X: float64(i % 6), Y: 0, Z: float64(i / 6)}, Color(i%ColorCount), 10, 1.0, NoFloor)
	}

	cfg := PulseConfig{Radius: 4, HeightUp: 2, HeightDown: 2, MaxTakeTotal: 7, FloorIDFilter: NoFloor}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			rt.Tick(0.01)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			rt.PulseAbsorb(vec.Vec3Float{X: 2, Y: 0, Z: 2}, cfg)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			rt.Stats()
			rt.CellStats()
			rt.Probe(0)
		}
	}()

	wg.Wait()

	for id := 0; id < rt.ProbeCount(); id++ {
		p := rt.Probe(ProbeID(id))
		if p.Remaining < 0 || p.Remaining > p.Capacity {
			t.Fatalf("Нарушен инвариант запаса при конкурентном доступе: зонд %d remaining=%f capacity=%f",
				id, p.Remaining, p.Capacity)
		}
	}
}

func TestRuntimeCellStats(t *testing.T) {
	rt := NewRuntime(Options{CellSize: 8.0, Clock: &ManualClock{}})

	rt.RegisterProbe(vec.Vec3Float{X: 1, Y: 0, Z: 1}, ColorRed, 10, 1.0, NoFloor)
	rt.RegisterProbe(vec.Vec3Float{X: 2, Y: 0, Z: 2}, ColorBlue, 10, 1.0, NoFloor)
	rt.RegisterProbe(vec.Vec3Float{X: 50, Y: 0, Z: 50}, ColorGreen, 10, 1.0, NoFloor)

	cs := rt.CellStats()

	if cs.CellSize != 8.0 {
		t.Errorf("Ожидался размер ячейки 8.0, получено %f", cs.CellSize)
	}
	if cs.CellCount != 2 {
		t.Errorf("Ожидалось 2 непустых ячейки, получено %d", cs.CellCount)
	}
	if cs.Probes != 3 {
		t.Errorf("Ожидалось 3 зонда в индексе, получено %d", cs.Probes)
	}
	if cs.MaxBucket != 2 {
		t.Errorf("Ожидался максимум 2 зонда в ячейке, получено %d", cs.MaxBucket)
	}
}
