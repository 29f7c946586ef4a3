package analytics

// NudgeKind classifies an advisory message.
type NudgeKind string

const (
	NudgeWarning       NudgeKind = "warning"
	NudgeEncouragement NudgeKind = "encouragement"
)

// Nudge is a short advisory derived from the health factors.
type Nudge struct {
	Kind    NudgeKind `json:"kind"`
	Message string    `json:"message"`
}

// Badge is an achievement unlocked by a healthy month.
type Badge struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

const (
	lowSavingThreshold  = 20
	highSavingThreshold = 80
	badgeSavingMin      = 90
	badgeGoalMin        = 75
)

// Nudges returns at most one nudge: a warning when less than 20% of the
// allowance is left, encouragement when at least 80% is.
func Nudges(h Health) []Nudge {
	switch {
	case h.SavingPercent < lowSavingThreshold:
		return []Nudge{{
			Kind:    NudgeWarning,
			Message: "You're spending quickly! Try skipping 1 delivery meal this week.",
		}}
	case h.SavingPercent >= highSavingThreshold:
		return []Nudge{{
			Kind:    NudgeEncouragement,
			Message: "You're 80% to your goal! Maybe skip 1 coffee and you're there.",
		}}
	default:
		return []Nudge{}
	}
}

// EarnedBadge reports the badge unlocked when at least 90% of the allowance
// is left and goal progress reached 75%.
func EarnedBadge(h Health) (Badge, bool) {
	if h.SavingPercent >= badgeSavingMin && h.GoalProgress >= badgeGoalMin {
		return Badge{Name: "Budget Master", Message: "Badge Unlocked: Budget Master! Keep it going!"}, true
	}
	return Badge{}, false
}
