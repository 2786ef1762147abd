package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CardsScanned tracks product cards run through a filter decision
	CardsScanned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fabfilter_cards_scanned_total",
			Help: "Total number of product cards scanned",
		},
	)

	// CardsHidden tracks the number of currently hidden product cards
	CardsHidden = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fabfilter_cards_hidden",
			Help: "Number of product cards currently hidden",
		},
	)

	// MutationBatches tracks processed mutation bursts
	MutationBatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fabfilter_mutation_batches_total",
			Help: "Total number of mutation batches processed",
		},
	)

	// BadgeUpdates tracks badge update messages sent
	BadgeUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fabfilter_badge_updates_total",
			Help: "Total number of badge updates sent",
		},
	)

	// FilterResets tracks full resets triggered by filter list updates
	FilterResets = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fabfilter_filter_resets_total",
			Help: "Total number of full filter resets",
		},
	)

	// RejectedMessages tracks inbound messages that failed validation
	RejectedMessages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fabfilter_rejected_messages_total",
			Help: "Total number of rejected inbound messages",
		},
	)
)
