package models

import "time"

// PanelSession is one open desktop panel, tracked server-side so the
// free-tier panel ceiling cannot be bypassed by a client-reported count.
type PanelSession struct {
	ID        string
	UserID    string
	PanelType string
	OpenedAt  time.Time
}
