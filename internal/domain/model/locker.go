package model

import "time"

// Locker is one parcel locker in the mirrored directory. LockerID is the
// provider's stable identifier and the primary key of the local table.
type Locker struct {
	LockerID    int64
	Name        string
	Country     string
	CityName    string
	PostCode    string
	Address     string
	FullAddress string
	UpdatedAt   time.Time
}

// LockerFilter narrows a directory query. Empty fields are ignored, so the
// zero value matches the whole directory.
type LockerFilter struct {
	Country  string
	City     string
	PostCode string
}
