package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"puripilot/internal/store"
)

// ModeNotifier receives device ids whose mode just changed so that
// push notifications can be fanned out asynchronously.
type ModeNotifier interface {
	Dispatch(deviceID string)
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	webpush  *webpush.Options
	notifier ModeNotifier
}

// NewHandler creates a new API handler. webpushOptions and notifier may
// be nil when push is not configured.
func NewHandler(s store.Store, webpushOptions *webpush.Options, notifier ModeNotifier) *Handler {
	return &Handler{
		store:    s,
		webpush:  webpushOptions,
		notifier: notifier,
	}
}
