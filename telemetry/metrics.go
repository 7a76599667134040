package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exports per-generation results to Prometheus.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	generations    prometheus.Counter
	extinctions    prometheus.Counter
	foodEaten      prometheus.Counter
	botContacts    prometheus.Counter
	bestEnergy     prometheus.Gauge
	averageEnergy  prometheus.Gauge
	averageBot     prometheus.Gauge
	energyQuantile *prometheus.GaugeVec
	species        prometheus.Gauge
	foodAvailable  prometheus.Gauge
	ticksPerSecond prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		generations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "organisms_generations_total",
			Help: "Completed generations.",
		}),
		extinctions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "organisms_mass_extinctions_total",
			Help: "Generations reseeded with random weights after a collapse.",
		}),
		foodEaten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "organisms_food_eaten_total",
			Help: "Food items consumed.",
		}),
		botContacts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "organisms_bot_contact_ticks_total",
			Help: "Ticks a bot spent touching its target.",
		}),
		bestEnergy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "organisms_best_energy",
			Help: "Best organism energy of the last generation.",
		}),
		averageEnergy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "organisms_average_energy",
			Help: "Mean organism energy of the last generation.",
		}),
		averageBot: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "organisms_average_bot_energy",
			Help: "Mean bot energy of the last generation.",
		}),
		energyQuantile: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "organisms_energy_quantile",
			Help: "Organism energy percentiles of the last generation.",
		}, []string{"quantile"}),
		species: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "organisms_species",
			Help: "Species count of the last generation.",
		}),
		foodAvailable: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "organisms_food_available",
			Help: "Food items in the pool after the last tick.",
		}),
		ticksPerSecond: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "organisms_ticks_per_second",
			Help: "Simulation throughput over the perf window.",
		}),
	}

	m.registry.MustRegister(
		m.generations, m.extinctions, m.foodEaten, m.botContacts,
		m.bestEnergy, m.averageEnergy, m.averageBot, m.energyQuantile,
		m.species, m.foodAvailable, m.ticksPerSecond,
	)
	return m
}

// ObserveGeneration records one completed generation.
func (m *Metrics) ObserveGeneration(s GenerationStats) {
	if m == nil {
		return
	}
	m.generations.Inc()
	if s.Extinction {
		m.extinctions.Inc()
	}
	m.foodEaten.Add(float64(s.FoodEaten))
	m.botContacts.Add(float64(s.BotContacts))
	m.bestEnergy.Set(s.BestEnergy)
	m.averageEnergy.Set(s.EnergyMean)
	m.averageBot.Set(s.AverageBotEnergy)
	m.energyQuantile.WithLabelValues("0.1").Set(s.EnergyP10)
	m.energyQuantile.WithLabelValues("0.5").Set(s.EnergyP50)
	m.energyQuantile.WithLabelValues("0.9").Set(s.EnergyP90)
	m.species.Set(float64(s.Species))
}

// SetFood records the current food pool size.
func (m *Metrics) SetFood(n int) {
	if m == nil {
		return
	}
	m.foodAvailable.Set(float64(n))
}

// ObservePerf records throughput from the perf collector.
func (m *Metrics) ObservePerf(s PerfStats) {
	if m == nil {
		return
	}
	m.ticksPerSecond.Set(s.TicksPerSecond)
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
