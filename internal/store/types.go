package store

import (
	"errors"
	"time"
)

// Sentinel errors mapped to HTTP status codes by the API layer.
var (
	// ErrNotFound is returned when a row does not exist where one is required.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a create collides with an existing id.
	ErrConflict = errors.New("id already exists")
)

// DeviceUpsert carries the mutable device fields of a PUT request.
// Nil pointers mean "field not provided"; the existing value (or the
// entity default on insert) is kept.
type DeviceUpsert struct {
	Name       *string
	Mode       *string
	SmellClass *string
	LastSeen   *time.Time
	CreatedAt  *time.Time
}

// FloorplanUpsert carries the fields of a floorplan PUT request.
// Data is always required; a nil Name keeps the existing name.
type FloorplanUpsert struct {
	Name *string
	Data string
}
