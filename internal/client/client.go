// Package client is a thin REST client for the puripilot API, used by
// the session controller.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when the server answers 404.
var ErrNotFound = errors.New("not found")

// StatusError is returned for any other non-success response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Device is the device wire DTO.
type Device struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Mode       string  `json:"mode"`
	SmellClass string  `json:"smell_class"`
	LastSeen   *string `json:"last_seen"`
	CreatedAt  string  `json:"createdAt"`
	UpdatedAt  string  `json:"updatedAt"`
}

// Floorplan is the floorplan wire DTO.
type Floorplan struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Data      string `json:"data"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Client calls the backend REST API.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logrus.Entry
}

// New creates a client for the API rooted at baseURL (e.g.
// "http://localhost:3001/api").
func New(baseURL string, log *logrus.Entry) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshal request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: string(raw)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrap(err, "decode response")
		}
	}
	return nil
}

// LatestFloorplan fetches the most recently updated floorplan.
func (c *Client) LatestFloorplan(ctx context.Context) (*Floorplan, error) {
	var fp Floorplan
	if err := c.do(ctx, http.MethodGet, "/floorplans/latest/current", nil, &fp); err != nil {
		return nil, err
	}
	return &fp, nil
}

// CreateFloorplan creates a floorplan and returns the server record,
// including the server-assigned id.
func (c *Client) CreateFloorplan(ctx context.Context, name, data string) (*Floorplan, error) {
	body := map[string]string{"name": name, "data": data}
	var fp Floorplan
	if err := c.do(ctx, http.MethodPost, "/floorplans", body, &fp); err != nil {
		return nil, err
	}
	return &fp, nil
}

// UpdateFloorplan upserts the floorplan with the given id.
func (c *Client) UpdateFloorplan(ctx context.Context, id, name, data string) (*Floorplan, error) {
	body := map[string]string{"id": id, "name": name, "data": data}
	var fp Floorplan
	if err := c.do(ctx, http.MethodPut, "/floorplans/"+id, body, &fp); err != nil {
		return nil, err
	}
	return &fp, nil
}

// GetDevice fetches one device by id.
func (c *Client) GetDevice(ctx context.Context, id string) (*Device, error) {
	var dev Device
	if err := c.do(ctx, http.MethodGet, "/devices/"+id, nil, &dev); err != nil {
		return nil, err
	}
	return &dev, nil
}

// CreateDevice registers a new device with the given display name.
func (c *Client) CreateDevice(ctx context.Context, name string) (*Device, error) {
	body := map[string]string{"name": name}
	var dev Device
	if err := c.do(ctx, http.MethodPost, "/devices", body, &dev); err != nil {
		return nil, err
	}
	return &dev, nil
}

// SetDeviceMode changes a device's operating mode.
func (c *Client) SetDeviceMode(ctx context.Context, id, mode string) (*Device, error) {
	body := map[string]string{"mode": mode}
	var dev Device
	if err := c.do(ctx, http.MethodPatch, "/devices/"+id+"/mode", body, &dev); err != nil {
		return nil, err
	}
	return &dev, nil
}

// UpdateDeviceName renames a device. The server treats a blank name as
// "no change".
func (c *Client) UpdateDeviceName(ctx context.Context, id, name string) (*Device, error) {
	body := map[string]string{"name": name}
	var dev Device
	if err := c.do(ctx, http.MethodPut, "/devices/"+id, body, &dev); err != nil {
		return nil, err
	}
	return &dev, nil
}
