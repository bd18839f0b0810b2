package models

import "time"

// Entity is implemented by every record kept in a synced collection.
type Entity interface {
	GetID() string
}

// Touchable records carry an UpdatedAt watermark refreshed on every mutation.
type Touchable interface {
	Touch(now time.Time)
}

// SoftDeletable records can be tombstoned instead of removed.
type SoftDeletable interface {
	IsDeleted() bool
}
