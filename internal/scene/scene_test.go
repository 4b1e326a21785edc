package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeLoadRoundTrip(t *testing.T) {
	s := New()
	s.SetFloorplan(Floorplan{
		Corners: map[string]Point{
			"a": {X: 0, Y: 0},
			"b": {X: 500, Y: 0},
		},
		Walls:            []Wall{{Corner1: "a", Corner2: "b"}},
		WallTextures:     []Texture{},
		FloorTextures:    map[string]Texture{},
		NewFloorTextures: map[string]Texture{},
	})
	deviceID := "dev-1"
	s.AddItem(Item{
		Name:     "Lg Puricare",
		Type:     1,
		ModelURL: "models/js/puricare.js",
		DeviceID: &deviceID,
		XPos:     130.5,
		YPos:     0,
		ZPos:     -20,
		Rotation: 1.57,
		ScaleX:   1,
		ScaleY:   1,
		ScaleZ:   1,
	})
	s.AddItem(Item{Name: "Sofa", Type: 1, ModelURL: "models/js/sofa.js", ScaleX: 1, ScaleY: 1, ScaleZ: 1})

	data, err := s.Serialize()
	require.NoError(t, err)

	restored := New()
	require.NoError(t, restored.Load(data))

	items := restored.Items()
	require.Len(t, items, 2)
	assert.Equal(t, s.Items(), items)
	require.NotNil(t, items[0].DeviceID)
	assert.Equal(t, "dev-1", *items[0].DeviceID)
	assert.Nil(t, items[1].DeviceID)

	fp := restored.Floorplan()
	assert.Equal(t, Point{X: 500, Y: 0}, fp.Corners["b"])
	require.Len(t, fp.Walls, 1)
	assert.Equal(t, "a", fp.Walls[0].Corner1)
}

func TestLoadDefaultScene(t *testing.T) {
	s := New()
	require.NoError(t, s.Load(DefaultSceneJSON))

	fp := s.Floorplan()
	assert.Len(t, fp.Corners, 4)
	assert.Len(t, fp.Walls, 4)
	assert.Empty(t, s.Items())
}

func TestLoadRejectsGarbage(t *testing.T) {
	s := New()
	assert.Error(t, s.Load("not json"))
}

func TestMutationEvents(t *testing.T) {
	s := New()

	var added, removed []Item
	var roomUpdates int
	s.ItemAdded.Subscribe(func(it Item) { added = append(added, it) })
	s.ItemRemoved.Subscribe(func(it Item) { removed = append(removed, it) })
	s.RoomsUpdated.Subscribe(func(struct{}) { roomUpdates++ })

	s.AddItem(Item{Name: "Chair"})
	s.AddItem(Item{Name: "Lamp"})
	s.RemoveItem(0)
	s.SetFloorplan(Floorplan{})

	require.Len(t, added, 2)
	assert.Equal(t, "Chair", added[0].Name)
	require.Len(t, removed, 1)
	assert.Equal(t, "Chair", removed[0].Name)
	assert.Equal(t, 1, roomUpdates)

	// Out-of-range removals are silently ignored.
	s.RemoveItem(10)
	assert.Len(t, removed, 1)
}

func TestLoadReannouncesItems(t *testing.T) {
	source := New()
	source.AddItem(Item{Name: "Desk"})
	source.AddItem(Item{Name: "Purifier"})
	data, err := source.Serialize()
	require.NoError(t, err)

	s := New()
	var announced []string
	s.ItemAdded.Subscribe(func(it Item) { announced = append(announced, it.Name) })

	require.NoError(t, s.Load(data))
	assert.Equal(t, []string{"Desk", "Purifier"}, announced)
}

func TestRenameItem(t *testing.T) {
	s := New()
	s.AddItem(Item{Name: "Old"})
	s.RenameItem(0, "New")
	assert.Equal(t, "New", s.Items()[0].Name)

	s.RenameItem(5, "nope") // out of range, no-op
	assert.Len(t, s.Items(), 1)
}
