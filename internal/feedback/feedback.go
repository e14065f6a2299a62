package feedback

import "time"

// Feedback is an append-only message from any visitor, no ownership
// relation, email is optional.
type Feedback struct {
	ID        int       `json:"id"`
	Message   string    `json:"message"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
