package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SeatsUsed = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "license_pool_seats_used",
			Help: "Seats currently consumed per organization and plan",
		},
		[]string{"org", "plan"},
	)

	SeatsAvailable = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "license_pool_seats_available",
			Help: "Seats currently free per organization and plan",
		},
		[]string{"org", "plan"},
	)

	SeatReservationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "license_pool_reservations_failed_total",
			Help: "Seat reservations rejected because a pool was exhausted",
		},
		[]string{"plan"},
	)

	QuotaDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entitlement_quota_denials_total",
			Help: "Usage recordings rejected because the window quota was spent",
		},
		[]string{"feature"},
	)

	CatalogSwaps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_swaps_total",
			Help: "Successful atomic catalog replacements",
		},
	)
)

// ObservePool updates the seat gauges from fresh pool counters.
func ObservePool(orgID uint, planCode string, used, available int) {
	org := strconv.FormatUint(uint64(orgID), 10)
	SeatsUsed.WithLabelValues(org, planCode).Set(float64(used))
	SeatsAvailable.WithLabelValues(org, planCode).Set(float64(available))
}
