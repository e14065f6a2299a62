package workouts

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one historical workout record, either imported from CSV
// or added manually.
type Entry struct {
	ID        int             `json:"id"`
	UserID    int             `json:"userId"`
	Date      time.Time       `json:"date"`
	Type      string          `json:"type"`
	Duration  int             `json:"duration"`
	Distance  decimal.Decimal `json:"distance"`
	Notes     string          `json:"notes,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}
