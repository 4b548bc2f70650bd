package streamdeck

import "context"

// Handler is the callback surface the host drives. Methods are invoked from
// the connection's read loop, one at a time, in the order frames arrive.
// Long-running work must not block the caller.
type Handler interface {
	KeyDown(ctx context.Context, ev KeyEvent) error
	KeyUp(ctx context.Context, ev KeyEvent) error
	WillAppear(ctx context.Context, ev AppearEvent) error
	WillDisappear(ctx context.Context, ev AppearEvent) error
	DeviceDidConnect(ctx context.Context, ev DeviceEvent) error
	DeviceDidDisconnect(ctx context.Context, ev DeviceEvent) error
	ApplicationDidLaunch(ctx context.Context, ev ApplicationEvent) error
	ApplicationDidTerminate(ctx context.Context, ev ApplicationEvent) error
	SendToPlugin(ctx context.Context, ev SendToPluginEvent) error
	DidReceiveSettings(ctx context.Context, ev SettingsEvent) error
}

// Sender is the set of commands a plugin can issue to the host.
type Sender interface {
	SetTitle(ctx context.Context, contextID, title string, target Target) error
	ShowAlert(ctx context.Context, contextID string) error
	ShowOk(ctx context.Context, contextID string) error
	SetSettings(ctx context.Context, contextID string, settings Settings) error
	GetSettings(ctx context.Context, contextID string) error
	SetState(ctx context.Context, contextID string, state int) error
	LogMessage(ctx context.Context, message string) error
	OpenURL(ctx context.Context, url string) error
	SendToPropertyInspector(ctx context.Context, action, contextID string, payload interface{}) error
}

// NopHandler implements Handler with no-ops. Embed it to override a subset.
type NopHandler struct{}

func (NopHandler) KeyDown(context.Context, KeyEvent) error                         { return nil }
func (NopHandler) KeyUp(context.Context, KeyEvent) error                           { return nil }
func (NopHandler) WillAppear(context.Context, AppearEvent) error                   { return nil }
func (NopHandler) WillDisappear(context.Context, AppearEvent) error                { return nil }
func (NopHandler) DeviceDidConnect(context.Context, DeviceEvent) error             { return nil }
func (NopHandler) DeviceDidDisconnect(context.Context, DeviceEvent) error          { return nil }
func (NopHandler) ApplicationDidLaunch(context.Context, ApplicationEvent) error    { return nil }
func (NopHandler) ApplicationDidTerminate(context.Context, ApplicationEvent) error { return nil }
func (NopHandler) SendToPlugin(context.Context, SendToPluginEvent) error           { return nil }
func (NopHandler) DidReceiveSettings(context.Context, SettingsEvent) error         { return nil }
