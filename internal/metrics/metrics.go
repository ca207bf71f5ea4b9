package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type OrderMetrics struct {
	transitions         *prometheus.CounterVec
	inventoryRejections prometheus.Counter
}

func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(reg prometheus.Registerer) *OrderMetrics {
	m := &OrderMetrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "library_order_transitions_total",
			Help: "Total number of applied order status transitions",
		}, []string{"status"}),
		inventoryRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "library_inventory_rejections_total",
			Help: "Total number of checkouts rejected for lack of available copies",
		}),
	}
	if err := reg.Register(m.transitions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			m.transitions = are.ExistingCollector.(*prometheus.CounterVec)
		}
	}
	if err := reg.Register(m.inventoryRejections); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			m.inventoryRejections = are.ExistingCollector.(prometheus.Counter)
		}
	}
	return m
}

func (m *OrderMetrics) Transition(status string) {
	m.transitions.WithLabelValues(status).Inc()
}

func (m *OrderMetrics) InventoryRejected() {
	m.inventoryRejections.Inc()
}
