package models

import "time"

// Workspace groups files and panels into one desktop surface.
type Workspace struct {
	ID        string
	OwnerID   string
	Name      string
	CreatedAt time.Time
}
