package streamdeck_test

import (
	"context"
	"sync"

	"github.com/xkilldash9x/deckscript/internal/streamdeck"
)

// call records one Handler invocation.
type call struct {
	Method string
	Event  interface{}
}

// recordingHandler captures every callback in order.
type recordingHandler struct {
	mu    sync.Mutex
	calls []call
	err   error
	seen  chan call
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{seen: make(chan call, 64)}
}

func (r *recordingHandler) record(method string, ev interface{}) error {
	c := call{Method: method, Event: ev}
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
	select {
	case r.seen <- c:
	default:
	}
	return r.err
}

func (r *recordingHandler) Calls() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]call, len(r.calls))
	copy(out, r.calls)
	return out
}

func (r *recordingHandler) KeyDown(_ context.Context, ev streamdeck.KeyEvent) error {
	return r.record("KeyDown", ev)
}
func (r *recordingHandler) KeyUp(_ context.Context, ev streamdeck.KeyEvent) error {
	return r.record("KeyUp", ev)
}
func (r *recordingHandler) WillAppear(_ context.Context, ev streamdeck.AppearEvent) error {
	return r.record("WillAppear", ev)
}
func (r *recordingHandler) WillDisappear(_ context.Context, ev streamdeck.AppearEvent) error {
	return r.record("WillDisappear", ev)
}
func (r *recordingHandler) DeviceDidConnect(_ context.Context, ev streamdeck.DeviceEvent) error {
	return r.record("DeviceDidConnect", ev)
}
func (r *recordingHandler) DeviceDidDisconnect(_ context.Context, ev streamdeck.DeviceEvent) error {
	return r.record("DeviceDidDisconnect", ev)
}
func (r *recordingHandler) ApplicationDidLaunch(_ context.Context, ev streamdeck.ApplicationEvent) error {
	return r.record("ApplicationDidLaunch", ev)
}
func (r *recordingHandler) ApplicationDidTerminate(_ context.Context, ev streamdeck.ApplicationEvent) error {
	return r.record("ApplicationDidTerminate", ev)
}
func (r *recordingHandler) SendToPlugin(_ context.Context, ev streamdeck.SendToPluginEvent) error {
	return r.record("SendToPlugin", ev)
}
func (r *recordingHandler) DidReceiveSettings(_ context.Context, ev streamdeck.SettingsEvent) error {
	return r.record("DidReceiveSettings", ev)
}

var _ streamdeck.Handler = (*recordingHandler)(nil)
