package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CommerceMetrics tracks order, rating and review activity.
type CommerceMetrics struct {
	ordersPlaced     *prometheus.CounterVec
	orderValue       *prometheus.HistogramVec
	ordersCanceled   prometheus.Counter
	ratingsSubmitted prometheus.Counter
	reviewsCreated   *prometheus.CounterVec
}

// NewCommerceMetrics registers the commerce collectors. A nil registerer
// yields a no-op recorder.
func NewCommerceMetrics(reg prometheus.Registerer) *CommerceMetrics {
	if reg == nil {
		return &CommerceMetrics{}
	}
	m := &CommerceMetrics{
		ordersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_orders_placed_total",
			Help: "Orders created, by checkout source.",
		}, []string{"source"}),
		orderValue: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_order_value_vnd",
			Help:    "Order total amounts in VND.",
			Buckets: []float64{50_000, 100_000, 250_000, 500_000, 1_000_000, 2_500_000, 5_000_000, 10_000_000},
		}, []string{"source"}),
		ordersCanceled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_orders_canceled_total",
			Help: "Orders canceled by buyers.",
		}),
		ratingsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_order_ratings_total",
			Help: "Order level ratings submitted.",
		}),
		reviewsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_reviews_created_total",
			Help: "Reviews and comments created, by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.ordersPlaced, m.orderValue, m.ordersCanceled, m.ratingsSubmitted, m.reviewsCreated)
	return m
}

func (m *CommerceMetrics) OrderPlaced(source string, total int64) {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	label := normalizeLabel(source)
	m.ordersPlaced.WithLabelValues(label).Inc()
	m.orderValue.WithLabelValues(label).Observe(float64(total))
}

func (m *CommerceMetrics) OrderCanceled() {
	if m == nil || m.ordersCanceled == nil {
		return
	}
	m.ordersCanceled.Inc()
}

func (m *CommerceMetrics) RatingSubmitted() {
	if m == nil || m.ratingsSubmitted == nil {
		return
	}
	m.ratingsSubmitted.Inc()
}

// ReviewCreated counts a stored review; kind is "review" or "comment".
func (m *CommerceMetrics) ReviewCreated(kind string) {
	if m == nil || m.reviewsCreated == nil {
		return
	}
	m.reviewsCreated.WithLabelValues(normalizeLabel(kind)).Inc()
}
