package field

import (
	"math"
	"testing"

	"github.com/annel0/essence-field/internal/vec"
)

func newTestRecovery(recoverySeconds, recoveryDelay float64) (*RecoveryScheduler, *ProbeStore, *ManualClock) {
	store := NewProbeStore(NewSpatialIndex(8.0))
	clock := &ManualClock{Current: 100}
	return NewRecoveryScheduler(store, clock, recoverySeconds, recoveryDelay), store, clock
}

// Восстановление монотонно: запас не убывает от тика к тику, достигает
// ёмкости и дальше не растёт.
func TestRecoveryMonotonic(t *testing.T) {
	rs, store, clock := newTestRecovery(10, 0)
	id := store.Register(vec.Vec3Float{}, ColorRed, 10, 1.0, NoFloor)
	store.GetMutable(id).Remaining = 0

	prev := 0.0
	for i := 0; i < 300; i++ {
		clock.Advance(0.05)
		rs.Tick(0.05)

		remaining := store.Get(id).Remaining
		if remaining < prev {
			t.Fatalf("Запас уменьшился при восстановлении: %f -> %f", prev, remaining)
		}
		if remaining > 10 {
			t.Fatalf("Запас превысил ёмкость: %f", remaining)
		}
		prev = remaining
	}

	if prev != 10 {
		t.Errorf("За 15 секунд при recoverySeconds=10 зонд должен восстановиться полностью, получено %f", prev)
	}
}

func TestRecoveryRate(t *testing.T) {
	rs, store, _ := newTestRecovery(20, 0)
	id := store.Register(vec.Vec3Float{}, ColorRed, 10, 1.0, NoFloor)
	store.GetMutable(id).Remaining = 0

	// Один тик в 1 секунду: прирост capacity/recoverySeconds = 0.5
	rs.Tick(1.0)

	if math.Abs(store.Get(id).Remaining-0.5) > 1e-9 {
		t.Errorf("Ожидался прирост 0.5, получено %f", store.Get(id).Remaining)
	}
}

func TestRecoveryDelay(t *testing.T) {
	rs, store, clock := newTestRecovery(10, 5)
	id := store.Register(vec.Vec3Float{}, ColorRed, 10, 1.0, NoFloor)

	p := store.GetMutable(id)
	p.Remaining = 0
	p.LastUpdateTime = clock.Current // дрейн прямо сейчас

	// Внутри паузы восстановления нет
	clock.Advance(3)
	rs.Tick(3)
	if store.Get(id).Remaining != 0 {
		t.Errorf("До истечения recoveryDelay запас не должен расти, получено %f", store.Get(id).Remaining)
	}

	// После паузы восстановление идёт
	clock.Advance(3)
	rs.Tick(3)
	if store.Get(id).Remaining <= 0 {
		t.Error("После истечения recoveryDelay запас должен расти")
	}
}

func TestRecoveryDisabled(t *testing.T) {
	for _, recoverySeconds := range []float64{0, -5} {
		rs, store, clock := newTestRecovery(recoverySeconds, 0)
		id := store.Register(vec.Vec3Float{}, ColorRed, 10, 1.0, NoFloor)
		store.GetMutable(id).Remaining = 2

		clock.Advance(1000)
		if n := rs.Tick(1000); n != 0 {
			t.Errorf("recoverySeconds=%f должен отключать восстановление, восстановлено %d", recoverySeconds, n)
		}
		if store.Get(id).Remaining != 2 {
			t.Errorf("Запас не должен меняться при отключённом восстановлении, получено %f", store.Get(id).Remaining)
		}
	}
}

func TestRecoveryFullProbeUntouched(t *testing.T) {
	rs, store, clock := newTestRecovery(10, 0)
	id := store.Register(vec.Vec3Float{}, ColorRed, 10, 1.0, NoFloor)

	clock.Advance(1)
	if n := rs.Tick(1); n != 0 {
		t.Errorf("Полный зонд не требует восстановления, восстановлено %d", n)
	}
	if store.Get(id).Remaining != 10 {
		t.Errorf("Запас полного зонда изменился: %f", store.Get(id).Remaining)
	}
}
