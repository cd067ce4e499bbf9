package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RingSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mem3",
		Name:      "ring_size",
		Help:      "Number of entries in the local membership ring.",
	})

	GossipRounds = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mem3",
		Name:      "gossip_rounds_total",
		Help:      "Number of outbound gossip rounds initiated by this node.",
	})

	GossipInbound = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mem3",
		Name:      "gossip_inbound_total",
		Help:      "Inbound gossip exchanges by clock comparison outcome.",
	}, []string{"outcome"})

	SnapshotWrites = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mem3",
		Name:      "snapshot_writes_total",
		Help:      "Number of membership snapshots written to disk.",
	})

	SnapshotWriteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mem3",
		Name:      "snapshot_write_seconds",
		Help:      "Time spent writing a membership snapshot.",
		Buckets:   prometheus.DefBuckets,
	})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mem3",
		Name:      "events_published_total",
		Help:      "Membership events published to the local event bus.",
	}, []string{"type"})
)
