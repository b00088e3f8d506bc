package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Metrics содержит все метрики приложения
type Metrics struct {
	logger *zap.Logger

	// Счетчики
	payoutRequests *prometheus.CounterVec
	payoutAmount   prometheus.Counter
	statsRefreshes *prometheus.CounterVec
	referralEvents *prometheus.CounterVec

	// Гистограммы
	payoutValue prometheus.Histogram

	// Gauge метрики
	trackedPromotions prometheus.Gauge

	// Мьютекс для thread-safety
	mu sync.RWMutex
}

// New создает новый экземпляр метрик
func New(logger *zap.Logger) *Metrics {
	m := &Metrics{
		logger: logger,

		// Счетчики запросов на выплату
		payoutRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payout_requests_total",
				Help: "Общее количество запросов на выплату",
			},
			[]string{"status"}, // completed, rejected, failed
		),

		// Суммарный объем выплат
		payoutAmount: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "payout_amount_total",
				Help: "Суммарный объем проведенных выплат",
			},
		),

		// Счетчики обновлений статистики
		statsRefreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stats_refreshes_total",
				Help: "Общее количество обновлений статистики продвижений",
			},
			[]string{"status"}, // success, failed
		),

		// Счетчики реферальных событий
		referralEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "referral_events_total",
				Help: "Общее количество реферальных событий",
			},
			[]string{"type"}, // created, purchase
		),

		// Гистограмма размеров выплат
		payoutValue: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "payout_value",
				Help:    "Размер одной проведенной выплаты",
				Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
			},
		),

		// Gauge отслеживаемых продвижений
		trackedPromotions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tracked_promotions",
				Help: "Количество продвижений, по которым собирается статистика",
			},
		),
	}

	// Регистрируем все метрики
	prometheus.MustRegister(
		m.payoutRequests,
		m.payoutAmount,
		m.statsRefreshes,
		m.referralEvents,
		m.payoutValue,
		m.trackedPromotions,
	)

	return m
}

// RecordPayoutRequest записывает результат запроса на выплату
func (m *Metrics) RecordPayoutRequest(status string, amount float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.payoutRequests.WithLabelValues(status).Inc()
	if status == "completed" && amount > 0 {
		m.payoutAmount.Add(amount)
		m.payoutValue.Observe(amount)
	}

	m.logger.Debug("учтен запрос на выплату",
		zap.String("status", status),
		zap.Float64("amount", amount))
}

// RecordStatsRefresh записывает результат обновления статистики продвижения
func (m *Metrics) RecordStatsRefresh(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if success {
		m.statsRefreshes.WithLabelValues("success").Inc()
	} else {
		m.statsRefreshes.WithLabelValues("failed").Inc()
	}
}

// RecordReferralEvent записывает реферальное событие
func (m *Metrics) RecordReferralEvent(eventType string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.referralEvents.WithLabelValues(eventType).Inc()
}

// SetTrackedPromotions устанавливает количество отслеживаемых продвижений
func (m *Metrics) SetTrackedPromotions(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.trackedPromotions.Set(float64(count))
}
