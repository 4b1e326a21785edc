// Package session implements the client-side persistence loop: dirty
// tracking, periodic autosave of the scene document, the device
// read-through cache and the floating info bubble state.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"puripilot/internal/client"
	"puripilot/internal/scene"
)

// Options tunes a Controller. Zero values get sensible defaults.
type Options struct {
	Interval      time.Duration // autosave tick period, default 1s
	FloorplanName string        // name used when saving, default "Current Floorplan"
	Viewport      Viewport
	BubbleSize    BubbleSize
	BubbleMoved   func(Vector2) // invoked every tick while an item is selected
}

// Selection identifies the scene item the user clicked, together with
// its world position as reported by the rendering engine.
type Selection struct {
	ItemIndex int
	Item      scene.Item
	Position  Vector3
}

// BubbleView holds the display fields of the device info bubble.
// Missing values render as a placeholder, never as an error.
type BubbleView struct {
	Title    string
	DeviceID string
	Name     string
	Mode     string
	Smell    string
	LastSeen string
}

const placeholder = "-"

// Controller owns all mutable client session state for one page
// session. It is constructed once at load time and never torn down.
type Controller struct {
	api    *client.Client
	scene  *scene.Scene
	camera Camera
	log    *logrus.Entry
	opts   Options

	mu          sync.Mutex
	floorplanID string // last server-assigned id, empty before first save
	dirty       bool
	dirtyGen    uint64 // bumped on every marking, so marks during a save survive it
	saving      bool   // single-flight guard

	devices *cache.Cache // device id -> *client.Device, never expires

	selected  *Selection
	bubblePos Vector2
	hasBubble bool
}

// NewController wires a controller to the scene's mutation events.
func NewController(api *client.Client, sc *scene.Scene, camera Camera, log *logrus.Entry, opts Options) *Controller {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.FloorplanName == "" {
		opts.FloorplanName = "Current Floorplan"
	}

	c := &Controller{
		api:     api,
		scene:   sc,
		camera:  camera,
		log:     log,
		opts:    opts,
		devices: cache.New(cache.NoExpiration, 0),
	}

	sc.ItemAdded.Subscribe(func(scene.Item) { c.MarkDirty("item-added") })
	sc.ItemRemoved.Subscribe(func(scene.Item) { c.MarkDirty("item-removed") })
	sc.RoomsUpdated.Subscribe(func(struct{}) { c.MarkDirty("floorplan-updated") })

	return c
}

// MarkDirty records an unsaved change. Repeated markings are idempotent.
func (c *Controller) MarkDirty(reason string) {
	c.mu.Lock()
	c.dirty = true
	c.dirtyGen++
	c.mu.Unlock()
	c.log.WithField("reason", reason).Debug("scene marked dirty")
}

// Dirty reports whether unsaved changes are pending.
func (c *Controller) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

// FloorplanID returns the last server-assigned floorplan id, or empty
// before the first successful save.
func (c *Controller) FloorplanID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.floorplanID
}

// LoadInitial pulls the latest floorplan from the server. When nothing
// is stored (or the fetch fails for any reason), the default starter
// scene is loaded and marked dirty so the next tick persists it.
func (c *Controller) LoadInitial(ctx context.Context) {
	fp, err := c.api.LatestFloorplan(ctx)
	if err == nil {
		if loadErr := c.scene.Load(fp.Data); loadErr == nil {
			c.mu.Lock()
			c.floorplanID = fp.ID
			c.dirty = false
			c.mu.Unlock()
			c.log.WithField("floorplan", fp.ID).Info("loaded floorplan from server")
			return
		}
	} else {
		c.log.WithError(err).Info("no stored floorplan, starting from default scene")
	}

	if err := c.scene.Load(scene.DefaultSceneJSON); err != nil {
		c.log.WithError(err).Error("failed to load default scene")
	}
	c.MarkDirty("initial-default")
}

// Run drives the autosave loop until ctx is cancelled. Each tick saves
// the scene when dirty (unless a save is already in flight) and
// refreshes the bubble position from the camera.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("session controller shutting down")
			return
		case <-ticker.C:
			c.TickOnce(ctx)
		}
	}
}

// TickOnce performs a single autosave/bubble cycle.
func (c *Controller) TickOnce(ctx context.Context) {
	c.attemptSave(ctx)
	c.updateBubble()
}

// SaveNow is the explicit "update floorplan" action: it marks the
// scene dirty and saves through the same single-flight path the
// autosave tick uses.
func (c *Controller) SaveNow(ctx context.Context) {
	c.MarkDirty("manual-save")
	c.attemptSave(ctx)
}

// attemptSave flushes the scene to the backend. It is a no-op when the
// scene is clean or another save is in flight; a tick arriving mid-save
// is dropped, not queued. Failures leave the dirty flag set so the next
// tick retries. There is no backoff and no user-facing error.
func (c *Controller) attemptSave(ctx context.Context) {
	c.mu.Lock()
	if !c.dirty || c.saving {
		c.mu.Unlock()
		return
	}
	c.saving = true
	gen := c.dirtyGen
	id := c.floorplanID
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.saving = false
		c.mu.Unlock()
	}()

	data, err := c.scene.Serialize()
	if err != nil {
		c.log.WithError(err).Error("failed to serialize scene")
		return
	}

	var fp *client.Floorplan
	if id == "" {
		fp, err = c.api.CreateFloorplan(ctx, c.opts.FloorplanName, data)
	} else {
		fp, err = c.api.UpdateFloorplan(ctx, id, c.opts.FloorplanName, data)
	}
	if err != nil {
		c.log.WithError(err).Debug("autosave failed, will retry on next tick")
		return
	}

	c.mu.Lock()
	c.floorplanID = fp.ID
	// Changes marked while the save was in flight stay dirty.
	if c.dirtyGen == gen {
		c.dirty = false
	}
	c.mu.Unlock()
}

// AddDeviceItem places an item in the scene. When the item comes from a
// device template and has no device yet, a device record is created
// first and its id attached to the item's metadata.
func (c *Controller) AddDeviceItem(ctx context.Context, it scene.Item, deviceTemplate string) scene.Item {
	if deviceTemplate != "" && it.DeviceID == nil {
		dev, err := c.api.CreateDevice(ctx, it.Name)
		if err != nil {
			c.log.WithError(err).Warn("failed to create device for new item")
		} else {
			it.DeviceID = &dev.ID
			c.devices.Set(dev.ID, dev, cache.NoExpiration)
		}
	}
	c.scene.AddItem(it)
	return it
}

// FetchDevice returns the device record for id, reading through the
// cache. Successful lookups are cached forever; failures are returned
// uncached so a later selection can retry.
func (c *Controller) FetchDevice(ctx context.Context, id string) (*client.Device, error) {
	if hit, ok := c.devices.Get(id); ok {
		return hit.(*client.Device), nil
	}
	dev, err := c.api.GetDevice(ctx, id)
	if err != nil {
		return nil, err
	}
	c.devices.Set(id, dev, cache.NoExpiration)
	return dev, nil
}

// SelectItem records the selection and builds the bubble view for it.
// Items without a device reference clear the bubble. A failed device
// fetch still yields a view, with placeholders for the missing fields.
func (c *Controller) SelectItem(ctx context.Context, sel Selection) (BubbleView, bool) {
	if sel.Item.DeviceID == nil {
		c.ClearSelection()
		return BubbleView{}, false
	}

	c.mu.Lock()
	c.selected = &sel
	c.mu.Unlock()

	dev, err := c.FetchDevice(ctx, *sel.Item.DeviceID)
	if err != nil {
		c.log.WithError(err).WithField("device", *sel.Item.DeviceID).Debug("device fetch failed")
		dev = nil
	}
	c.updateBubble()
	return bubbleView(sel.Item, dev), true
}

// ClearSelection hides the bubble.
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	c.selected = nil
	c.hasBubble = false
	c.mu.Unlock()
}

// BubblePosition returns the last projected bubble position and whether
// a bubble is currently shown.
func (c *Controller) BubblePosition() (Vector2, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bubblePos, c.hasBubble
}

// updateBubble reprojects the selected item's position so the bubble
// tracks camera movement continuously, not only on selection change.
func (c *Controller) updateBubble() {
	c.mu.Lock()
	sel := c.selected
	c.mu.Unlock()

	if sel == nil || c.camera == nil {
		return
	}
	pos := projectBubble(c.camera, c.opts.Viewport, c.opts.BubbleSize, sel.Position)

	c.mu.Lock()
	c.bubblePos = pos
	c.hasBubble = true
	c.mu.Unlock()

	if c.opts.BubbleMoved != nil {
		c.opts.BubbleMoved(pos)
	}
}

// SetDeviceMode switches the selected device's mode. On success the
// cache entry is replaced with the server's authoritative record.
// Failures are swallowed: the cache keeps the previous state.
func (c *Controller) SetDeviceMode(ctx context.Context, mode string) *BubbleView {
	c.mu.Lock()
	sel := c.selected
	c.mu.Unlock()
	if sel == nil || sel.Item.DeviceID == nil {
		return nil
	}

	id := *sel.Item.DeviceID
	dev, err := c.api.SetDeviceMode(ctx, id, mode)
	if err != nil {
		c.log.WithError(err).WithField("device", id).Debug("mode change failed")
		return nil
	}
	c.devices.Set(id, dev, cache.NoExpiration)
	view := bubbleView(sel.Item, dev)
	return &view
}

// SaveDeviceName renames the selected device. This is an explicit user
// action, so failures are logged; local state is left untouched.
func (c *Controller) SaveDeviceName(ctx context.Context, name string) (*BubbleView, error) {
	c.mu.Lock()
	sel := c.selected
	c.mu.Unlock()
	if sel == nil || sel.Item.DeviceID == nil {
		return nil, nil
	}

	id := *sel.Item.DeviceID
	dev, err := c.api.UpdateDeviceName(ctx, id, name)
	if err != nil {
		c.log.WithError(err).WithField("device", id).Error("device name save failed")
		return nil, err
	}
	c.devices.Set(id, dev, cache.NoExpiration)
	c.scene.RenameItem(sel.ItemIndex, dev.Name)

	c.mu.Lock()
	c.selected.Item.Name = dev.Name
	sel = c.selected
	c.mu.Unlock()

	view := bubbleView(sel.Item, dev)
	return &view, nil
}

func bubbleView(it scene.Item, dev *client.Device) BubbleView {
	view := BubbleView{
		Title:    it.Name,
		Mode:     placeholder,
		Smell:    placeholder,
		LastSeen: placeholder,
	}
	if view.Title == "" {
		view.Title = "Device"
	}
	if it.DeviceID != nil {
		view.DeviceID = *it.DeviceID
	}
	if dev == nil {
		return view
	}
	if dev.Name != "" {
		view.Name = dev.Name
	}
	if dev.Mode != "" {
		view.Mode = dev.Mode
	}
	if dev.SmellClass != "" {
		view.Smell = dev.SmellClass
	}
	if dev.LastSeen != nil && *dev.LastSeen != "" {
		view.LastSeen = *dev.LastSeen
	}
	return view
}
