package achievements

// Rarity tiers for achievement definitions.
const (
	RarityCommon    = "common"
	RarityRare      = "rare"
	RarityEpic      = "epic"
	RarityLegendary = "legendary"
)

// Snapshot is a point-in-time view of a user's progression counters, as
// consumed by unlock conditions.
type Snapshot struct {
	XP                int64
	Level             int
	Points            int64
	TotalPointsEarned int64
	WatchTimeMinutes  int64
	MessagesSent      int64
	LoginStreak       int
}

// Signals carries external facts that are not part of the progression
// counters but can still gate an unlock.
type Signals struct {
	Partner   bool
	Affiliate bool
}

// Condition describes when an achievement unlocks: either a progression
// counter crossing a threshold, or an external signal turning true.
type Condition struct {
	Counter   string `json:"counter,omitempty"`
	Threshold int64  `json:"threshold,omitempty"`
	Signal    string `json:"signal,omitempty"`
}

// Definition is one entry in the static achievement catalog. Definitions are
// immutable after load.
type Definition struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Rarity      string    `json:"rarity"`
	Icon        string    `json:"icon"`
	Condition   Condition `json:"condition"`
}

// Met reports whether the definition's unlock condition holds for the given
// snapshot and signal bundle.
func (d Definition) Met(s Snapshot, sig Signals) bool {
	if d.Condition.Signal != "" {
		switch d.Condition.Signal {
		case "partner":
			return sig.Partner
		case "affiliate":
			return sig.Affiliate
		default:
			return false
		}
	}

	return counterValue(s, d.Condition.Counter) >= d.Condition.Threshold
}

func counterValue(s Snapshot, counter string) int64 {
	switch counter {
	case "xp":
		return s.XP
	case "level":
		return int64(s.Level)
	case "points_earned":
		return s.TotalPointsEarned
	case "watch_minutes":
		return s.WatchTimeMinutes
	case "messages_sent":
		return s.MessagesSent
	case "login_streak":
		return int64(s.LoginStreak)
	default:
		return -1
	}
}
