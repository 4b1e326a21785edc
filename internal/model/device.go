package model

import "time"

// DeviceMode is the operating mode of a purifier device.
type DeviceMode string

const (
	ModeOff    DeviceMode = "OFF"
	ModeLow    DeviceMode = "LOW"
	ModeNormal DeviceMode = "NORMAL"
	ModeHigh   DeviceMode = "HIGH"
	ModeTurbo  DeviceMode = "TURBO"
)

// ValidMode reports whether s is one of the five accepted modes.
func ValidMode(s string) bool {
	switch DeviceMode(s) {
	case ModeOff, ModeLow, ModeNormal, ModeHigh, ModeTurbo:
		return true
	}
	return false
}

// SmellClass is the air-quality classification reported for a device.
type SmellClass string

const (
	SmellBackground SmellClass = "BACKGROUND"
	SmellFragrance  SmellClass = "FRAGRANCE"
	SmellBad        SmellClass = "BAD"
)

// ValidSmellClass reports whether s is a recognized smell classification.
func ValidSmellClass(s string) bool {
	switch SmellClass(s) {
	case SmellBackground, SmellFragrance, SmellBad:
		return true
	}
	return false
}

// Device represents a smart purifier placed in the floorplan.
type Device struct {
	ID         string     `gorm:"primaryKey;size:64"`
	Name       string     `gorm:"size:255;not null"`
	Mode       DeviceMode `gorm:"size:16;not null;default:OFF"`
	SmellClass SmellClass `gorm:"size:16;not null;default:BACKGROUND"`
	LastSeen   *time.Time
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}
