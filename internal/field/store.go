package field

import (
	"fmt"

	"github.com/annel0/essence-field/internal/vec"
)

// ProbeStore арена зондов: плотный срез записей, адресуемых целочисленным
// идентификатором. Все мутации состояния зондов проходят через хранилище;
// указатели наружу не утекают дольше, чем на время одной операции.
type ProbeStore struct {
	probes []Probe
	index  *SpatialIndex // Регистрация зонда сразу индексирует его позицию
}

// NewProbeStore создаёт хранилище, привязанное к пространственному индексу
func NewProbeStore(index *SpatialIndex) *ProbeStore {
	return &ProbeStore{
		probes: make([]Probe, 0, 256),
		index:  index,
	}
}

// Register добавляет статический зонд с полным запасом и возвращает его идентификатор
func (ps *ProbeStore) Register(position vec.Vec3Float, color Color, capacity, density float64, floorID int) ProbeID {
	return ps.RegisterOwned(position, color, capacity, density, floorID, WorldOwner)
}

// RegisterOwned добавляет зонд, принадлежащий динамической сущности
func (ps *ProbeStore) RegisterOwned(position vec.Vec3Float, color Color, capacity, density float64, floorID, ownerID int) ProbeID {
	id := ProbeID(len(ps.probes))
	ps.probes = append(ps.probes, Probe{
		Position:       position,
		Color:          color,
		Remaining:      capacity,
		Capacity:       capacity,
		Density:        density,
		FloorID:        floorID,
		OwnerID:        ownerID,
		LastUpdateTime: 0,
	})

	if ps.index != nil {
		ps.index.Insert(id, position)
	}

	return id
}

// checkID паникует при обращении по чужому идентификатору.
// Выход за границы арены — ошибка программирования, не восстановимое состояние.
func (ps *ProbeStore) checkID(id ProbeID) {
	if id < 0 || int(id) >= len(ps.probes) {
		panic(fmt.Sprintf("field: неизвестный ProbeID %d (зарегистрировано %d)", id, len(ps.probes)))
	}
}

// Get возвращает копию записи зонда
func (ps *ProbeStore) Get(id ProbeID) Probe {
	ps.checkID(id)
	return ps.probes[id]
}

// GetMutable возвращает изменяемую ссылку на запись зонда.
// Ссылка действительна до следующего Register (арена может переехать).
func (ps *ProbeStore) GetMutable(id ProbeID) *Probe {
	ps.checkID(id)
	return &ps.probes[id]
}

// Count возвращает количество зарегистрированных зондов
func (ps *ProbeStore) Count() int {
	return len(ps.probes)
}

// CountByColor возвращает количество зондов каждого цвета
func (ps *ProbeStore) CountByColor() [ColorCount]int {
	var counts [ColorCount]int
	for i := range ps.probes {
		counts[ps.probes[i].Color]++
	}
	return counts
}

// ForEach вызывает fn для каждого зонда в порядке регистрации
func (ps *ProbeStore) ForEach(fn func(id ProbeID, p *Probe)) {
	for i := range ps.probes {
		fn(ProbeID(i), &ps.probes[i])
	}
}
