package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"puripilot/config"
	"puripilot/internal/model"
	"puripilot/internal/store"
)

// newTestRouter builds the full router against a private in-memory
// database. Rate limits are set high enough that tests never trip them.
func newTestRouter(t *testing.T) (*gin.Engine, store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := "file:api_" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Device{}, &model.Floorplan{}, &model.PushSubscription{}))

	s := store.NewGormStore(db)
	cfg := &config.ServerConfig{RateLimitPerSec: 10000, RateLimitBurst: 10000, CacheTTLSeconds: 1}
	return NewRouter(s, cfg, nil, nil), s
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestCreateDevice_Defaults(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/devices", gin.H{"name": "Living room"})
	require.Equal(t, http.StatusCreated, w.Code)

	body := decode(t, w)
	assert.NotEmpty(t, body["id"], "server must generate an id")
	assert.Equal(t, "Living room", body["name"])
	assert.Equal(t, "OFF", body["mode"])
	assert.Equal(t, "BACKGROUND", body["smell_class"])
	assert.NotEmpty(t, body["createdAt"])
}

func TestCreateDevice_DuplicateID(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/devices", gin.H{"id": "abc", "name": "First"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/devices", gin.H{"id": "abc", "name": "Second"})
	require.Equal(t, http.StatusConflict, w.Code)

	// Original row is untouched.
	w = doJSON(t, r, http.MethodGet, "/api/devices/abc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "First", decode(t, w)["name"])
}

func TestCreateDevice_InvalidEnum(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/devices", gin.H{"mode": "WARP"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid mode", decode(t, w)["error"])

	w = doJSON(t, r, http.MethodPost, "/api/devices", gin.H{"smell_class": "NICE"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid smell_class", decode(t, w)["error"])
}

func TestSetDeviceMode(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/devices", gin.H{"id": "abc"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPatch, "/api/devices/abc/mode", gin.H{"mode": "TURBO"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "TURBO", body["mode"])
	assert.NotEmpty(t, body["last_seen"], "mode change must refresh last_seen")
}

func TestSetDeviceMode_Invalid(t *testing.T) {
	r, _ := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/api/devices", gin.H{"id": "abc", "mode": "LOW"})

	w := doJSON(t, r, http.MethodPatch, "/api/devices/abc/mode", gin.H{"mode": "WARP"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPatch, "/api/devices/abc/mode", gin.H{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "mode required", decode(t, w)["error"])

	// Device state unchanged by the rejected requests.
	w = doJSON(t, r, http.MethodGet, "/api/devices/abc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "LOW", decode(t, w)["mode"])
}

func TestSetDeviceMode_NotFound(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodPatch, "/api/devices/ghost/mode", gin.H{"mode": "HIGH"})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpsertDevice_CreateThenUpdate(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPut, "/api/devices/dev-1", gin.H{"name": "Office"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode(t, w)
	assert.Equal(t, "Office", created["name"])

	w = doJSON(t, r, http.MethodPut, "/api/devices/dev-1", gin.H{"mode": "HIGH"})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode(t, w)
	assert.Equal(t, "HIGH", updated["mode"])
	assert.Equal(t, "Office", updated["name"])
	assert.Equal(t, created["createdAt"], updated["createdAt"])
}

func TestUpsertDevice_BlankNameKeepsName(t *testing.T) {
	r, _ := newTestRouter(t)

	doJSON(t, r, http.MethodPut, "/api/devices/dev-2", gin.H{"name": "Bedroom"})

	w := doJSON(t, r, http.MethodPut, "/api/devices/dev-2", gin.H{"name": "  "})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Bedroom", decode(t, w)["name"])
}

func TestDeleteDevice(t *testing.T) {
	r, _ := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/api/devices", gin.H{"id": "abc"})

	w := doJSON(t, r, http.MethodDelete, "/api/devices/abc", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/devices/abc", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/devices/abc", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateFloorplan_RequiresData(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/floorplans", gin.H{"name": "No data"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "data required", decode(t, w)["error"])
}

func TestCreateFloorplan_GeneratedID(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/floorplans", gin.H{"data": `{"items":[]}`})
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Regexp(t, `^fp-\d+$`, body["id"])
	assert.Equal(t, store.DefaultFloorplanName, body["name"])
	assert.Equal(t, `{"items":[]}`, body["data"])
}

func TestUpsertFloorplan_CreateThenUpdate(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPut, "/api/floorplans/fp1", gin.H{"name": "Home", "data": "{}"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode(t, w)

	w = doJSON(t, r, http.MethodPut, "/api/floorplans/fp1", gin.H{"name": "Home", "data": `{"v":2}`})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode(t, w)
	assert.Equal(t, created["createdAt"], updated["createdAt"])
	assert.Equal(t, `{"v":2}`, updated["data"])

	w = doJSON(t, r, http.MethodPut, "/api/floorplans/fp2", gin.H{"data": "{}"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, store.DefaultFloorplanName, decode(t, w)["name"])
}

func TestLatestFloorplan(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/floorplans/latest/current", nil)
	require.Equal(t, http.StatusNotFound, w.Code, "empty store has no latest floorplan")

	doJSON(t, r, http.MethodPut, "/api/floorplans/fp-old", gin.H{"data": "old"})
	doJSON(t, r, http.MethodPut, "/api/floorplans/fp-new", gin.H{"data": "new"})
	// A later write to the first plan makes it the most recent again.
	doJSON(t, r, http.MethodPut, "/api/floorplans/fp-old", gin.H{"data": "old-v2"})

	w = doJSON(t, r, http.MethodGet, "/api/floorplans/latest/current", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "fp-old", body["id"])
	assert.Equal(t, "old-v2", body["data"])
}

func TestDeleteFloorplan(t *testing.T) {
	r, _ := newTestRouter(t)

	doJSON(t, r, http.MethodPut, "/api/floorplans/fp1", gin.H{"data": "{}"})

	w := doJSON(t, r, http.MethodDelete, "/api/floorplans/fp1", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/floorplans/fp1", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubscriptionLifecycle(t *testing.T) {
	r, s := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/api/devices", gin.H{"id": "dev-1"})
	doJSON(t, r, http.MethodPost, "/api/devices", gin.H{"id": "dev-2"})

	sub := gin.H{
		"endpoint":           "https://push.example.org/ep1",
		"p256dh":             "key-material",
		"auth":               "auth-material",
		"subscribed_devices": []string{"dev-1", "dev-2"},
	}
	w := doJSON(t, r, http.MethodPut, "/api/subscriptions", sub)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/subscriptions?endpoint=https%3A%2F%2Fpush.example.org%2Fep1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		SubscribedDevices []string `json:"subscribed_devices"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.ElementsMatch(t, []string{"dev-1", "dev-2"}, got.SubscribedDevices)

	w = doJSON(t, r, http.MethodDelete, "/api/subscriptions", gin.H{"endpoint": "https://push.example.org/ep1"})
	require.Equal(t, http.StatusNoContent, w.Code)

	var count int64
	require.NoError(t, s.DB().Model(&model.PushSubscription{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestVAPIDPublicKey_Unconfigured(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/api/vapid_public_key", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}
