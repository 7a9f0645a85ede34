package metrics

import (
	"github.com/moa-platform/checkout-service/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CheckoutMetrics интерфейс для метрик чекаута
type CheckoutMetrics interface {
	IncCheckoutStarted()
	IncCheckoutCompleted(flow string)
	IncCheckoutResumed(outcome string)
	IncPaymentRedirect(flow string)
	IncPaymentFailed(flow string)
	ObserveDepositAmount(flow string, amount int64)
}

type checkoutMetrics struct {
	log              *logger.Logger
	checkoutsStarted prometheus.Counter
	checkoutsDone    *prometheus.CounterVec
	resumptions      *prometheus.CounterVec
	redirects        *prometheus.CounterVec
	failures         *prometheus.CounterVec
	depositAmounts   *prometheus.HistogramVec
}

// NewCheckoutMetrics создает новые метрики чекаута
func NewCheckoutMetrics(registry *prometheus.Registry, log *logger.Logger) CheckoutMetrics {
	checkoutsStarted := promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "checkouts_started_total",
			Help: "The total number of started checkouts",
		},
	)

	checkoutsDone := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkouts_completed_total",
			Help: "The total number of completed checkout flows",
		},
		[]string{"flow"},
	)

	resumptions := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_resumptions_total",
			Help: "The total number of checkout resumptions after a payment redirect",
		},
		[]string{"outcome"},
	)

	redirects := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_redirects_total",
			Help: "The total number of requested payment provider redirects",
		},
		[]string{"flow"},
	)

	failures := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_failed_total",
			Help: "The total number of failed payments",
		},
		[]string{"flow"},
	)

	depositAmounts := promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deposit_amount_won",
			Help:    "Deposit amounts distribution in KRW",
			Buckets: prometheus.ExponentialBuckets(1000, 2, 6), // 1000 .. 32000
		},
		[]string{"flow"},
	)

	return &checkoutMetrics{
		log:              log,
		checkoutsStarted: checkoutsStarted,
		checkoutsDone:    checkoutsDone,
		resumptions:      resumptions,
		redirects:        redirects,
		failures:         failures,
		depositAmounts:   depositAmounts,
	}
}

// IncCheckoutStarted увеличивает счетчик начатых чекаутов
func (m *checkoutMetrics) IncCheckoutStarted() {
	m.checkoutsStarted.Inc()
}

// IncCheckoutCompleted увеличивает счетчик завершенных потоков
func (m *checkoutMetrics) IncCheckoutCompleted(flow string) {
	m.checkoutsDone.WithLabelValues(flow).Inc()
}

// IncCheckoutResumed увеличивает счетчик восстановлений после редиректа
func (m *checkoutMetrics) IncCheckoutResumed(outcome string) {
	m.resumptions.WithLabelValues(outcome).Inc()
}

// IncPaymentRedirect увеличивает счетчик запрошенных редиректов
func (m *checkoutMetrics) IncPaymentRedirect(flow string) {
	m.redirects.WithLabelValues(flow).Inc()
}

// IncPaymentFailed увеличивает счетчик неудачных платежей
func (m *checkoutMetrics) IncPaymentFailed(flow string) {
	m.failures.WithLabelValues(flow).Inc()
}

// ObserveDepositAmount записывает сумму депозита
func (m *checkoutMetrics) ObserveDepositAmount(flow string, amount int64) {
	m.depositAmounts.WithLabelValues(flow).Observe(float64(amount))
}
