package zone

import (
	"encoding/hex"
	"errors"

	"github.com/kysee/zkledger/zk-ledger/types"
	"github.com/prometheus/client_golang/prometheus"
)

const reasonLabel = "reason"

type metrics struct {
	accepted    prometheus.Counter
	rejected    *prometheus.CounterVec
	nullifiers  prometheus.Gauge
	commitments prometheus.Gauge
}

func newMetrics(registerer prometheus.Registerer, id types.ZoneID) (*metrics, error) {
	labels := prometheus.Labels{"zone": hex.EncodeToString(id[:4])}
	m := &metrics{
		accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "zkledger",
			Name:        "updates_accepted",
			Help:        "number of zone updates accepted",
			ConstLabels: labels,
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "zkledger",
			Name:        "updates_rejected",
			Help:        "number of zone updates rejected",
			ConstLabels: labels,
		}, []string{reasonLabel}),
		nullifiers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "zkledger",
			Name:        "nullifiers",
			Help:        "number of spent nullifiers",
			ConstLabels: labels,
		}),
		commitments: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "zkledger",
			Name:        "note_commitments",
			Help:        "number of note commitments",
			ConstLabels: labels,
		}),
	}
	if registerer == nil {
		return m, nil
	}
	return m, errors.Join(
		registerer.Register(m.accepted),
		registerer.Register(m.rejected),
		registerer.Register(m.nullifiers),
		registerer.Register(m.commitments),
	)
}

func (m *metrics) reject(err error) {
	reason := "other"
	var v *types.InvariantViolation
	if errors.As(err, &v) {
		reason = v.Kind.String()
	}
	m.rejected.With(prometheus.Labels{reasonLabel: reason}).Inc()
}
