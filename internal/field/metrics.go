package field

import "github.com/prometheus/client_golang/prometheus"

// Metrics метрики поля зондов.
// * essence_field_pulses_total — counter импульсов
// * essence_field_drained_total{color} — counter зачисленной эссенции по цветам
// * essence_field_probes_drained_total — counter задетых зондов
// * essence_field_probes — gauge зарегистрированных зондов
// * essence_field_cells — gauge непустых ячеек индекса
type Metrics struct {
	PulsesTotal        prometheus.Counter
	DrainedTotal       *prometheus.CounterVec
	ProbesDrainedTotal prometheus.Counter
	Probes             prometheus.Gauge
	Cells              prometheus.Gauge
}

// NewMetrics создаёт метрики и регистрирует их в указанном регистре.
// nil означает дефолтный регистр prometheus.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		PulsesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "essence_field",
			Name:      "pulses_total",
			Help:      "Общее число импульсов поглощения.",
		}),
		DrainedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "essence_field",
			Name:      "drained_total",
			Help:      "Зачисленная эссенция по цветам.",
		}, []string{"color"}),
		ProbesDrainedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "essence_field",
			Name:      "probes_drained_total",
			Help:      "Общее число задетых импульсами зондов.",
		}),
		Probes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "essence_field",
			Name:      "probes",
			Help:      "Количество зарегистрированных зондов.",
		}),
		Cells: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "essence_field",
			Name:      "cells",
			Help:      "Количество непустых ячеек пространственного индекса.",
		}),
	}

	reg.MustRegister(m.PulsesTotal, m.DrainedTotal, m.ProbesDrainedTotal, m.Probes, m.Cells)
	return m
}

// observePulse учитывает результат импульса
func (m *Metrics) observePulse(result *PulseResult) {
	if m == nil {
		return
	}

	m.PulsesTotal.Inc()
	m.ProbesDrainedTotal.Add(float64(result.ProbesDrained))
	for color, amount := range result.TakenByColor {
		if amount > 0 {
			m.DrainedTotal.WithLabelValues(Color(color).String()).Add(amount)
		}
	}
}

// observeTopology обновляет gauges зондов и ячеек
func (m *Metrics) observeTopology(probes, cells int) {
	if m == nil {
		return
	}

	m.Probes.Set(float64(probes))
	m.Cells.Set(float64(cells))
}
