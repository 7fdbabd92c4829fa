package field

import (
	"sort"

	"github.com/annel0/essence-field/internal/vec"
)

// PulseConfig параметры одного импульса поглощения.
// Объём запроса — цилиндр со смещённым центром: радиус в плоскости XZ
// и вертикальные полуразмеры вверх/вниз от точки импульса.
type PulseConfig struct {
	Radius        float64 // Радиус в плоскости XZ
	HeightUp      float64 // Вертикальный захват вверх от центра
	HeightDown    float64 // Вертикальный захват вниз от центра
	MaxTakeTotal  float64 // Бюджет поглощения за импульс
	FloorIDFilter int     // NoFloor = без фильтра этажа
}

// PulseResult итог одного импульса. Неизменяем после возврата.
type PulseResult struct {
	TakenByColor     [ColorCount]float64 // Зачислено по цветам
	TotalTaken       float64             // Зачислено всего
	CandidatesTested int                 // Кандидаты, прошедшие точные фильтры
	ProbesDrained    int                 // Реально задетые зонды
	DrainedIDs       []ProbeID           // Задетые зонды в порядке дрейна
}

// emptyResult канонический пустой результат
func emptyResult() PulseResult {
	return PulseResult{DrainedIDs: []ProbeID{}}
}

// candidate кандидат импульса с предвычисленным квадратом XZ-расстояния
type candidate struct {
	id     ProbeID
	distSq float64
}

// AbsorptionEngine выполняет импульсы поглощения над хранилищем зондов.
//
// Политика дрейна — "capped-take": ближайшие зонды опустошаются в пределах
// бюджета, остаток списка не трогается. Альтернативная политика
// "full-drain-capped-store" сознательно не реализована (см. DESIGN.md).
type AbsorptionEngine struct {
	store  *ProbeStore
	index  *SpatialIndex
	visual *PulseVisualBuffer
	clock  Clock

	scratch []ProbeID // переиспользуемый буфер сырых кандидатов
}

// NewAbsorptionEngine собирает движок из его зависимостей.
// visual может быть nil — тогда штампы не публикуются.
func NewAbsorptionEngine(store *ProbeStore, index *SpatialIndex, visual *PulseVisualBuffer, clock Clock) *AbsorptionEngine {
	return &AbsorptionEngine{
		store:   store,
		index:   index,
		visual:  visual,
		clock:   clock,
		scratch: make([]ProbeID, 0, 64),
	}
}

// collectCandidates возвращает зонды внутри цилиндра (center XZ, radius,
// [yMin, yMax]) с учётом фильтра этажа, отсортированные по возрастанию
// XZ-расстояния (при равенстве — по идентификатору, для детерминизма).
// onlyWithRemaining дополнительно отбрасывает пустые зонды.
//
// Порядок точных фильтров: запас -> вертикальное окно -> этаж -> квадрат
// расстояния. Квадрат расстояния последним: он единственный требует
// вычислений, остальные — сравнения полей.
func (e *AbsorptionEngine) collectCandidates(center vec.Vec3Float, radius, yMin, yMax float64, floorFilter int, onlyWithRemaining bool) []candidate {
	e.scratch = e.scratch[:0]
	e.index.QueryCircle(center.XZ(), radius, &e.scratch)
	if len(e.scratch) == 0 {
		return nil
	}

	radiusSq := radius * radius
	centerXZ := center.XZ()

	candidates := make([]candidate, 0, len(e.scratch))
	for _, id := range e.scratch {
		p := e.store.GetMutable(id)

		if onlyWithRemaining && !p.HasRemaining() {
			continue
		}
		if p.Position.Y < yMin || p.Position.Y > yMax {
			continue
		}
		// Зонд без этажа совпадает с любым фильтром
		if floorFilter >= 0 && p.FloorID >= 0 && p.FloorID != floorFilter {
			continue
		}
		distSq := p.Position.XZ().DistanceSqTo(centerXZ)
		if distSq > radiusSq {
			continue
		}

		candidates = append(candidates, candidate{id: id, distSq: distSq})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distSq != candidates[j].distSq {
			return candidates[i].distSq < candidates[j].distSq
		}
		return candidates[i].id < candidates[j].id
	})

	return candidates
}

// QueryCylinder возвращает зонды внутри цилиндра независимо от их запаса.
// Читающий интерфейс для HUD и оверлеев.
func (e *AbsorptionEngine) QueryCylinder(center vec.Vec3Float, radius, yMin, yMax float64, floorFilter int) []ProbeID {
	candidates := e.collectCandidates(center, radius, yMin, yMax, floorFilter, false)
	ids := make([]ProbeID, len(candidates))
	for i, c := range candidates {
		ids[i] = c.id
	}
	return ids
}

// Pulse выполняет импульс поглощения в точке center.
//
// Кандидаты собираются по кругу из пространственного индекса, проходят
// точные фильтры цилиндра, сортируются от ближнего к дальнему и дрейнятся
// по политике capped-take: с каждого берётся min(remaining*density,
// остаток бюджета); при исчерпании бюджета обход прекращается, дальние
// зонды не трогаются. При ненулевом дрейне в визуальный буфер публикуется
// штамп геометрии импульса.
func (e *AbsorptionEngine) Pulse(center vec.Vec3Float, cfg PulseConfig) PulseResult {
	yMin := center.Y - cfg.HeightDown
	yMax := center.Y + cfg.HeightUp

	candidates := e.collectCandidates(center, cfg.Radius, yMin, yMax, cfg.FloorIDFilter, true)
	if len(candidates) == 0 {
		return emptyResult()
	}

	now := e.clock.Now()
	result := emptyResult()
	result.CandidatesTested = len(candidates)

	budget := cfg.MaxTakeTotal
	for _, c := range candidates {
		if budget <= Epsilon {
			break
		}

		p := e.store.GetMutable(c.id)

		available := p.Remaining * p.Density
		take := available
		if take > budget {
			take = budget
		}
		if take <= Epsilon {
			continue
		}

		// Переводим взятое обратно в сырые единицы запаса
		takenRaw := take / p.Density
		if takenRaw > p.Remaining {
			takenRaw = p.Remaining
		}
		p.Remaining -= takenRaw
		if p.Remaining < Epsilon {
			p.Remaining = 0
		}
		p.LastUpdateTime = now

		result.TakenByColor[p.Color] += take
		result.TotalTaken += take
		result.ProbesDrained++
		result.DrainedIDs = append(result.DrainedIDs, c.id)

		budget -= take
	}

	if result.ProbesDrained > 0 && e.visual != nil {
		e.visual.Push(PulseVisualStamp{
			CenterX:   float32(center.X),
			CenterZ:   float32(center.Z),
			YMin:      float32(yMin),
			YMax:      float32(yMax),
			Radius:    float32(cfg.Radius),
			CreatedAt: float32(now),
		})
	}

	return result
}
