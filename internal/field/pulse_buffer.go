package field

import "github.com/google/uuid"

// VisualSlots ёмкость кольцевого буфера визуальных штампов.
// Значение согласовано с фиксированным uniform-массивом на стороне
// рендера и не перенастраивается в рантайме.
const VisualSlots = 16

// PulseVisualStamp снимок геометрии и времени одного дрейна.
// Хранится только для затухающих визуальных эффектов; на игровую
// логику не влияет.
type PulseVisualStamp struct {
	CenterX   float32
	CenterZ   float32
	YMin      float32
	YMax      float32
	Radius    float32
	CreatedAt float32
}

// StampConsumer потребитель упакованных массивов штампов (рендер-коллаборатор).
// Valid() == false означает, что потребитель умер и будет лениво выброшен
// при следующем обновлении.
type StampConsumer interface {
	OnStampsUpdated(geometry, timing [VisualSlots][4]float32)
	Valid() bool
}

// PulseVisualBuffer кольцевой буфер последних дрейнов фиксированной ёмкости.
// Переполнение — штатный режим: самый старый штамп молча перезаписывается.
type PulseVisualBuffer struct {
	stamps    [VisualSlots]PulseVisualStamp
	head      int // следующий слот для записи
	count     int // насыщается на VisualSlots
	consumers map[string]StampConsumer
}

// NewPulseVisualBuffer создаёт пустой буфер
func NewPulseVisualBuffer() *PulseVisualBuffer {
	return &PulseVisualBuffer{
		consumers: make(map[string]StampConsumer),
	}
}

// Push записывает штамп, перезаписывая самый старый слот при заполнении,
// и рассылает обновлённые массивы живым потребителям
func (b *PulseVisualBuffer) Push(stamp PulseVisualStamp) {
	b.stamps[b.head] = stamp
	b.head = (b.head + 1) % VisualSlots
	if b.count < VisualSlots {
		b.count++
	}

	b.notifyConsumers()
}

// Clear обнуляет буфер. Слоты заполняются нулями, а не остаются как есть:
// рендер, читающий массив фиксированного размера, не должен видеть
// устаревшую геометрию.
func (b *PulseVisualBuffer) Clear() {
	b.stamps = [VisualSlots]PulseVisualStamp{}
	b.head = 0
	b.count = 0

	b.notifyConsumers()
}

// Count возвращает число занятых слотов (насыщается на VisualSlots)
func (b *PulseVisualBuffer) Count() int {
	return b.count
}

// PackedGeometry возвращает массив (centerX, centerZ, yMin, yMax) по слотам.
// Незанятые слоты нулевые.
func (b *PulseVisualBuffer) PackedGeometry() [VisualSlots][4]float32 {
	var out [VisualSlots][4]float32
	for i, s := range b.stamps {
		out[i] = [4]float32{s.CenterX, s.CenterZ, s.YMin, s.YMax}
	}
	return out
}

// PackedTiming возвращает массив (radius, creationTime, 0, 0) по слотам
func (b *PulseVisualBuffer) PackedTiming() [VisualSlots][4]float32 {
	var out [VisualSlots][4]float32
	for i, s := range b.stamps {
		out[i] = [4]float32{s.Radius, s.CreatedAt, 0, 0}
	}
	return out
}

// RegisterConsumer подписывает потребителя на обновления и возвращает
// токен для отписки. Потребителю сразу отправляется текущее состояние.
func (b *PulseVisualBuffer) RegisterConsumer(c StampConsumer) string {
	token := uuid.NewString()
	b.consumers[token] = c
	c.OnStampsUpdated(b.PackedGeometry(), b.PackedTiming())
	return token
}

// UnregisterConsumer отписывает потребителя по токену; неизвестный токен — no-op
func (b *PulseVisualBuffer) UnregisterConsumer(token string) {
	delete(b.consumers, token)
}

// ConsumerCount возвращает число подписанных потребителей
func (b *PulseVisualBuffer) ConsumerCount() int {
	return len(b.consumers)
}

// notifyConsumers рассылает массивы и лениво выбрасывает умерших потребителей
func (b *PulseVisualBuffer) notifyConsumers() {
	if len(b.consumers) == 0 {
		return
	}

	geometry := b.PackedGeometry()
	timing := b.PackedTiming()

	for token, c := range b.consumers {
		if !c.Valid() {
			delete(b.consumers, token)
			continue
		}
		c.OnStampsUpdated(geometry, timing)
	}
}
