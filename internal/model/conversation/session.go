package conversation

import "time"

// Session captures a transient anonymous conversation bound to one
// semantic model.
type Session struct {
	ID            string    `json:"id"`
	SemanticModel string    `json:"semanticModel"`
	CreatedAt     time.Time `json:"createdAt"`
}
