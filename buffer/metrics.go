package buffer

import "github.com/prometheus/client_golang/prometheus"

var (
	allocsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "refptr",
		Subsystem: "buffer",
		Name:      "allocs_total",
		Help:      "Packed buffers allocated because the pool was empty.",
	})
	getsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "refptr",
		Subsystem: "buffer",
		Name:      "gets_total",
		Help:      "Packed buffers handed out by NewPackedBuffer.",
	})
	putsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "refptr",
		Subsystem: "buffer",
		Name:      "puts_total",
		Help:      "Packed buffers returned to the pool by their last release.",
	})
	activeGauge = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "refptr",
		Subsystem: "buffer",
		Name:      "active",
		Help:      "Packed buffers currently referenced.",
	}, func() float64 { return float64(ActiveBuffers.Load()) })
)

// RegisterMetrics registers the buffer pool collectors with reg.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{allocsTotal, getsTotal, putsTotal, activeGauge} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
