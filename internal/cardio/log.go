package cardio

import (
	"time"

	"github.com/shopspring/decimal"
)

// Activity selects one of the three structurally identical cardio tables.
type Activity string

const (
	ActivityRun   Activity = "run"
	ActivityCycle Activity = "cycle"
	ActivitySwim  Activity = "swim"
)

func (a Activity) Table() string {
	switch a {
	case ActivityRun:
		return "runs"
	case ActivityCycle:
		return "cycles"
	case ActivitySwim:
		return "swims"
	}
	return ""
}

func (a Activity) Path() string {
	return "/" + a.Table()
}

// Log is a single cardio entry. Stroke is only meaningful for swims
// and stays empty for the other activities.
type Log struct {
	ID        int             `json:"id"`
	UserID    int             `json:"userId"`
	Date      time.Time       `json:"date"`
	Distance  decimal.Decimal `json:"distance"`
	Duration  int             `json:"duration"`
	Stroke    string          `json:"stroke,omitempty"`
	Notes     string          `json:"notes,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}
