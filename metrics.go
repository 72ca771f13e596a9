package hashring

import "github.com/prometheus/client_golang/prometheus"

const (
	opAdd     = "add"
	opRemove  = "remove"
	opReplace = "replace"
)

var (
	nodesGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "hashring",
		Subsystem: "ring",
		Name:      "nodes",
		Help:      "Number of physical nodes on the ring",
	}, []string{"ring"})

	pointsGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "hashring",
		Subsystem: "ring",
		Name:      "virtual_nodes",
		Help:      "Number of virtual nodes on the ring",
	}, []string{"ring"})

	versionGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "hashring",
		Subsystem: "ring",
		Name:      "version",
		Help:      "Version of the published ring snapshot",
	}, []string{"ring"})

	changesCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hashring",
		Subsystem: "membership",
		Name:      "changes_total",
		Help:      "Number of applied membership changes",
	}, []string{"ring", "op"})

	movesCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hashring",
		Subsystem: "membership",
		Name:      "moved_ranges_total",
		Help:      "Number of key ranges which changed their owner",
	}, []string{"ring", "op"})

	collisionCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hashring",
		Subsystem: "ring",
		Name:      "collisions_total",
		Help:      "Number of virtual node position collisions resolved by salting",
	}, []string{"ring"})
)

func init() {
	prometheus.MustRegister(
		nodesGauge,
		pointsGauge,
		versionGauge,
		changesCounter,
		movesCounter,
		collisionCounter)
}

func observe(ring, op string, s *Snapshot, moves []Move) {
	nodesGauge.WithLabelValues(ring).Set(float64(len(s.members)))
	pointsGauge.WithLabelValues(ring).Set(float64(s.Len()))
	versionGauge.WithLabelValues(ring).Set(float64(s.version))
	changesCounter.WithLabelValues(ring, op).Inc()
	movesCounter.WithLabelValues(ring, op).Add(float64(len(moves)))
}
