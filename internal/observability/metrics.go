package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	awardsTotal             *prometheus.CounterVec
	awardLatencySeconds     *prometheus.HistogramVec
	levelUpsTotal           prometheus.Counter
	achievementUnlocksTotal *prometheus.CounterVec
	activityEventsTotal     *prometheus.CounterVec
	feedRequestsTotal       *prometheus.CounterVec
	moderationActionsTotal  *prometheus.CounterVec
	enforcementChecksTotal  *prometheus.CounterVec
	sweepDeactivationsTotal prometheus.Counter
	progressConflictsTotal  prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors for the engagement
// and moderation core.
func RegisterMetrics() {
	registerOnce.Do(func() {
		awardsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "progression_awards_total",
			Help: "Total number of progression awards applied.",
		}, []string{"kind"})

		awardLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "progression_award_latency_seconds",
			Help:    "Latency distribution for award operations.",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}, []string{"kind"})

		levelUpsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "progression_level_ups_total",
			Help: "Total number of level-up events emitted.",
		})

		achievementUnlocksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "achievement_unlocks_total",
			Help: "Total number of achievements unlocked.",
		}, []string{"rarity"})

		activityEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "activity_events_total",
			Help: "Total number of activity feed events recorded.",
		}, []string{"type"})

		feedRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "activity_feed_requests_total",
			Help: "Activity feed reads by cache outcome.",
		}, []string{"outcome"})

		moderationActionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moderation_actions_total",
			Help: "Total number of moderation actions issued.",
		}, []string{"action"})

		enforcementChecksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moderation_enforcement_checks_total",
			Help: "Enforcement queries by resulting state.",
		}, []string{"state"})

		sweepDeactivationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "moderation_sweep_deactivations_total",
			Help: "Expired timeouts deactivated by the sweep.",
		})

		progressConflictsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "progression_version_conflicts_total",
			Help: "Optimistic update conflicts observed by the ledger.",
		})

		prometheus.MustRegister(
			awardsTotal,
			awardLatencySeconds,
			levelUpsTotal,
			achievementUnlocksTotal,
			activityEventsTotal,
			feedRequestsTotal,
			moderationActionsTotal,
			enforcementChecksTotal,
			sweepDeactivationsTotal,
			progressConflictsTotal,
		)
	})
}

// Awards exposes the counter for applied awards.
func Awards() *prometheus.CounterVec {
	RegisterMetrics()
	return awardsTotal
}

// AwardLatency exposes the award latency histogram.
func AwardLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return awardLatencySeconds
}

// LevelUps exposes the level-up counter.
func LevelUps() prometheus.Counter {
	RegisterMetrics()
	return levelUpsTotal
}

// AchievementUnlocks exposes the unlock counter.
func AchievementUnlocks() *prometheus.CounterVec {
	RegisterMetrics()
	return achievementUnlocksTotal
}

// ActivityEvents exposes the recorded feed event counter.
func ActivityEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return activityEventsTotal
}

// FeedRequests exposes the feed read counter.
func FeedRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return feedRequestsTotal
}

// ModerationActions exposes the issued action counter.
func ModerationActions() *prometheus.CounterVec {
	RegisterMetrics()
	return moderationActionsTotal
}

// EnforcementChecks exposes the enforcement query counter.
func EnforcementChecks() *prometheus.CounterVec {
	RegisterMetrics()
	return enforcementChecksTotal
}

// SweepDeactivations exposes the sweep counter.
func SweepDeactivations() prometheus.Counter {
	RegisterMetrics()
	return sweepDeactivationsTotal
}

// ProgressConflicts exposes the optimistic conflict counter.
func ProgressConflicts() prometheus.Counter {
	RegisterMetrics()
	return progressConflictsTotal
}
