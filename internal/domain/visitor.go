package domain

import "time"

// Visitor is a person requesting service turns, keyed by national id document.
type Visitor struct {
	ID        string
	Document  string
	Name      string
	Phone     string
	Email     string
	Category  Category
	CreatedAt time.Time
}
