package field

import "time"

// Clock источник монотонного времени в секундах.
// Ядро не привязано к wall-clock: время всегда внедряется снаружи.
type Clock interface {
	Now() float64
}

// monotonicClock отсчитывает секунды от момента создания
type monotonicClock struct {
	start time.Time
}

// NewMonotonicClock создаёт часы на основе монотонного таймера процесса
func NewMonotonicClock() Clock {
	return &monotonicClock{start: time.Now()}
}

func (c *monotonicClock) Now() float64 {
	return time.Since(c.start).Seconds()
}

// ManualClock часы с ручным управлением для тестов и детерминированных прогонов
type ManualClock struct {
	Current float64
}

func (c *ManualClock) Now() float64 {
	return c.Current
}

// Advance продвигает часы вперёд на dt секунд
func (c *ManualClock) Advance(dt float64) {
	c.Current += dt
}
