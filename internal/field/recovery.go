package field

// RecoveryScheduler линейно восстанавливает задрейненные зонды к ёмкости.
// Запускается раз в тик симуляции; зонды восстанавливаются независимо
// друг от друга.
type RecoveryScheduler struct {
	store *ProbeStore
	clock Clock

	// RecoverySeconds время полного восстановления от нуля до ёмкости.
	// Значение <= 0 полностью отключает восстановление (не ошибка).
	RecoverySeconds float64

	// RecoveryDelay пауза после последнего дрейна, в течение которой
	// зонд не восстанавливается
	RecoveryDelay float64
}

// NewRecoveryScheduler создаёт планировщик восстановления
func NewRecoveryScheduler(store *ProbeStore, clock Clock, recoverySeconds, recoveryDelay float64) *RecoveryScheduler {
	return &RecoveryScheduler{
		store:           store,
		clock:           clock,
		RecoverySeconds: recoverySeconds,
		RecoveryDelay:   recoveryDelay,
	}
}

// Tick обрабатывает один тик симуляции с прошедшим временем dt.
// Возвращает число зондов, которым был добавлен запас.
func (rs *RecoveryScheduler) Tick(dt float64) int {
	if rs.RecoverySeconds <= 0 || dt <= 0 {
		return 0
	}

	now := rs.clock.Now()
	recovered := 0

	rs.store.ForEach(func(id ProbeID, p *Probe) {
		if p.Remaining >= p.Capacity {
			return
		}
		if now-p.LastUpdateTime < rs.RecoveryDelay {
			return
		}

		p.Remaining += p.Capacity / rs.RecoverySeconds * dt
		if p.Remaining > p.Capacity {
			p.Remaining = p.Capacity
		}
		recovered++
	})

	return recovered
}
