// Package models defines the data structures used throughout the pipeline utilities
package models

import "fmt"

// Interaction groups that raw interaction types are rolled up into
const (
	CategoryAssistance = "assistance_interaction"
	CategoryCareer     = "career_interaction"
	CategoryPayment    = "payment_interaction"
	CategorySocial     = "social_interaction"
	CategorySyllabus   = "syllabus_interaction"
)

// InteractionMapping is one row of the interaction mapping CSV.
// It maps a raw lead interaction column to the group it is summed into.
type InteractionMapping struct {
	ID              int64  `db:"id" json:"id"`                             // Auto-increment primary key
	InteractionType string `db:"interaction_type" json:"interaction_type"` // Raw interaction column, e.g. "1_on_1_sessions"
	Category        string `db:"interaction_mapping" json:"interaction_mapping"`
}

// String returns a human-readable representation of the mapping
func (m InteractionMapping) String() string {
	return fmt.Sprintf("%s -> %s", m.InteractionType, m.Category)
}

// KnownCategories returns the interaction groups in alphabetical order
func KnownCategories() []string {
	return []string{
		CategoryAssistance,
		CategoryCareer,
		CategoryPayment,
		CategorySocial,
		CategorySyllabus,
	}
}

// IsKnownCategory reports whether category is one of the standard interaction groups
func IsKnownCategory(category string) bool {
	for _, known := range KnownCategories() {
		if category == known {
			return true
		}
	}
	return false
}
