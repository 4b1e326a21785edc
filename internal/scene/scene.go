// Package scene models the serialized floorplan document the editor
// exchanges with the backend: room geometry plus placed items. The
// backend itself never parses this format; it is produced and consumed
// by the client session.
package scene

import (
	"encoding/json"
	"fmt"
	"sync"

	"puripilot/internal/events"
)

// Point is a 2D floorplan coordinate in centimeters.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Texture describes a wall or floor surface texture.
type Texture struct {
	URL     string  `json:"url"`
	Stretch bool    `json:"stretch"`
	Scale   float64 `json:"scale"`
}

// Wall connects two corners by id and carries its surface textures.
type Wall struct {
	Corner1      string   `json:"corner1"`
	Corner2      string   `json:"corner2"`
	FrontTexture *Texture `json:"frontTexture,omitempty"`
	BackTexture  *Texture `json:"backTexture,omitempty"`
}

// Floorplan is the room-geometry half of the document.
type Floorplan struct {
	Corners          map[string]Point   `json:"corners"`
	Walls            []Wall             `json:"walls"`
	WallTextures     []Texture          `json:"wallTextures"`
	FloorTextures    map[string]Texture `json:"floorTextures"`
	NewFloorTextures map[string]Texture `json:"newFloorTextures"`
}

// Item is a placed object: furniture or a purifier device.
type Item struct {
	Name     string  `json:"item_name"`
	Type     int     `json:"item_type"`
	ModelURL string  `json:"model_url"`
	DeviceID *string `json:"device_id"`
	XPos     float64 `json:"xpos"`
	YPos     float64 `json:"ypos"`
	ZPos     float64 `json:"zpos"`
	Rotation float64 `json:"rotation"`
	ScaleX   float64 `json:"scale_x"`
	ScaleY   float64 `json:"scale_y"`
	ScaleZ   float64 `json:"scale_z"`
	Fixed    bool    `json:"fixed"`
}

// Document is the complete wire-format payload stored in a floorplan's
// data column.
type Document struct {
	Floorplan Floorplan `json:"floorplan"`
	Items     []Item    `json:"items"`
}

// Scene is the in-memory scene state. Mutations publish events so the
// session controller can track unsaved changes without knowing about
// the rendering engine.
type Scene struct {
	mu  sync.Mutex
	doc Document

	// ItemAdded fires after an item is placed, ItemRemoved after one is
	// deleted, RoomsUpdated after the floorplan geometry changes.
	ItemAdded    events.Feed[Item]
	ItemRemoved  events.Feed[Item]
	RoomsUpdated events.Feed[struct{}]
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{doc: emptyDocument()}
}

func emptyDocument() Document {
	return Document{
		Floorplan: Floorplan{
			Corners:          map[string]Point{},
			Walls:            []Wall{},
			WallTextures:     []Texture{},
			FloorTextures:    map[string]Texture{},
			NewFloorTextures: map[string]Texture{},
		},
		Items: []Item{},
	}
}

// Load replaces the scene contents with a serialized document. Items
// are re-announced through ItemAdded so observers rebuild their state,
// mirroring how the editor re-adds objects on load.
func (s *Scene) Load(serialized string) error {
	doc := emptyDocument()
	if err := json.Unmarshal([]byte(serialized), &doc); err != nil {
		return fmt.Errorf("failed to parse scene document: %w", err)
	}

	s.mu.Lock()
	s.doc = doc
	items := make([]Item, len(doc.Items))
	copy(items, doc.Items)
	s.mu.Unlock()

	s.RoomsUpdated.Publish(struct{}{})
	for _, it := range items {
		s.ItemAdded.Publish(it)
	}
	return nil
}

// Serialize renders the current document in the wire format.
func (s *Scene) Serialize() (string, error) {
	s.mu.Lock()
	doc := s.doc
	s.mu.Unlock()

	b, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to serialize scene document: %w", err)
	}
	return string(b), nil
}

// AddItem places an item in the scene.
func (s *Scene) AddItem(it Item) {
	s.mu.Lock()
	s.doc.Items = append(s.doc.Items, it)
	s.mu.Unlock()
	s.ItemAdded.Publish(it)
}

// RemoveItem deletes the item at the given index.
func (s *Scene) RemoveItem(index int) {
	s.mu.Lock()
	if index < 0 || index >= len(s.doc.Items) {
		s.mu.Unlock()
		return
	}
	removed := s.doc.Items[index]
	s.doc.Items = append(s.doc.Items[:index], s.doc.Items[index+1:]...)
	s.mu.Unlock()
	s.ItemRemoved.Publish(removed)
}

// Items returns a copy of the placed items.
func (s *Scene) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]Item, len(s.doc.Items))
	copy(items, s.doc.Items)
	return items
}

// SetFloorplan replaces the room geometry.
func (s *Scene) SetFloorplan(fp Floorplan) {
	s.mu.Lock()
	s.doc.Floorplan = fp
	s.mu.Unlock()
	s.RoomsUpdated.Publish(struct{}{})
}

// Floorplan returns the current room geometry.
func (s *Scene) Floorplan() Floorplan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Floorplan
}

// RenameItem updates the display label of the item at index, used after
// a device name save propagates back from the server.
func (s *Scene) RenameItem(index int, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.doc.Items) {
		return
	}
	s.doc.Items[index].Name = name
}
