package api

import (
	"log"
	"time"

	"puripilot/internal/model"
)

// persistedTimeLayout is the stored DATETIME form accepted on the wire
// in addition to RFC 3339. Responses always carry RFC 3339.
const persistedTimeLayout = "2006-01-02 15:04:05"

type deviceDTO struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Mode       string  `json:"mode"`
	SmellClass string  `json:"smell_class"`
	LastSeen   *string `json:"last_seen"`
	CreatedAt  string  `json:"createdAt"`
	UpdatedAt  string  `json:"updatedAt"`
}

type floorplanDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Data      string `json:"data"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toDeviceDTO(dev *model.Device) deviceDTO {
	dto := deviceDTO{
		ID:         dev.ID,
		Name:       dev.Name,
		Mode:       string(dev.Mode),
		SmellClass: string(dev.SmellClass),
		CreatedAt:  dev.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  dev.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if dev.LastSeen != nil {
		seen := dev.LastSeen.UTC().Format(time.RFC3339)
		dto.LastSeen = &seen
	}
	return dto
}

func toFloorplanDTO(fp *model.Floorplan) floorplanDTO {
	return floorplanDTO{
		ID:        fp.ID,
		Name:      fp.Name,
		Data:      fp.Data,
		CreatedAt: fp.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: fp.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// parseTimestamp converts a client-supplied timestamp into a time.Time.
// Unparseable values are treated as absent, matching how the service has
// always handled sloppy client clocks.
func parseTimestamp(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, *s); err == nil {
		return &t
	}
	if t, err := time.ParseInLocation(persistedTimeLayout, *s, time.UTC); err == nil {
		return &t
	}
	log.Printf("Warning: ignoring unparseable timestamp %q", *s)
	return nil
}
