package models

import "time"

// Moc is a simple to-do item.
type Moc struct {
	ID          int64
	Title       string
	Description string
	Completed   bool
	CreatedAt   time.Time
}
