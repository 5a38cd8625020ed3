package model

import "time"

// SyncResult summarizes one completed locker directory sync.
type SyncResult struct {
	CountryCode string
	Count       int
	StartedAt   time.Time
	Duration    time.Duration
}
