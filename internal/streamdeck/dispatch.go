package streamdeck

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Dispatcher decodes inbound frames and routes them to a Handler.
type Dispatcher struct {
	handler Handler
	logger  *zap.Logger
}

// NewDispatcher creates a Dispatcher for h.
func NewDispatcher(h Handler, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{handler: h, logger: logger.Named("dispatch")}
}

// Dispatch decodes raw and invokes the matching Handler method.
// Events the plugin does not act on are logged and ignored.
func (d *Dispatcher) Dispatch(ctx context.Context, raw []byte) error {
	msg, err := DecodeMessage(raw)
	if err != nil {
		return err
	}

	d.logger.Debug("Received event.",
		zap.String("event", string(msg.Event)),
		zap.String("action", msg.Action),
		zap.String("context", msg.Context),
		zap.String("device", msg.Device),
	)

	switch msg.Event {
	case EventKeyDown, EventKeyUp:
		ev := KeyEvent{Action: msg.Action, Context: msg.Context, Device: msg.Device}
		if err := msg.decodePayload(&ev.Payload); err != nil {
			return err
		}
		if msg.Event == EventKeyDown {
			return d.wrap(msg, d.handler.KeyDown(ctx, ev))
		}
		return d.wrap(msg, d.handler.KeyUp(ctx, ev))

	case EventWillAppear, EventWillDisappear:
		ev := AppearEvent{Action: msg.Action, Context: msg.Context, Device: msg.Device}
		if err := msg.decodePayload(&ev.Payload); err != nil {
			return err
		}
		if msg.Event == EventWillAppear {
			return d.wrap(msg, d.handler.WillAppear(ctx, ev))
		}
		return d.wrap(msg, d.handler.WillDisappear(ctx, ev))

	case EventDidReceiveSettings:
		ev := SettingsEvent{Action: msg.Action, Context: msg.Context, Device: msg.Device}
		if err := msg.decodePayload(&ev.Payload); err != nil {
			return err
		}
		return d.wrap(msg, d.handler.DidReceiveSettings(ctx, ev))

	case EventDeviceDidConnect:
		ev := DeviceEvent{Device: msg.Device}
		if msg.DeviceInfo != nil {
			ev.Info = *msg.DeviceInfo
		}
		ev.Info.ID = msg.Device
		return d.wrap(msg, d.handler.DeviceDidConnect(ctx, ev))

	case EventDeviceDidDisconnect:
		return d.wrap(msg, d.handler.DeviceDidDisconnect(ctx, DeviceEvent{Device: msg.Device}))

	case EventApplicationDidLaunch, EventApplicationDidTerminate:
		var p ApplicationPayload
		if err := msg.decodePayload(&p); err != nil {
			return err
		}
		ev := ApplicationEvent{Application: p.Application}
		if msg.Event == EventApplicationDidLaunch {
			return d.wrap(msg, d.handler.ApplicationDidLaunch(ctx, ev))
		}
		return d.wrap(msg, d.handler.ApplicationDidTerminate(ctx, ev))

	case EventSendToPlugin:
		ev := SendToPluginEvent{Action: msg.Action, Context: msg.Context}
		if err := msg.decodePayload(&ev.Payload); err != nil {
			return err
		}
		return d.wrap(msg, d.handler.SendToPlugin(ctx, ev))

	case EventDidReceiveGlobalSettings, EventTitleParametersDidChange,
		EventPropertyInspectorDidAppear, EventPropertyInspectorDidHide, EventSystemDidWakeUp:
		d.logger.Debug("Event has no handler; ignoring.", zap.String("event", string(msg.Event)))
		return nil

	default:
		d.logger.Info("Unknown event from host; ignoring.", zap.String("event", string(msg.Event)))
		return nil
	}
}

func (d *Dispatcher) wrap(msg *Message, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s handler for context %q: %w", msg.Event, msg.Context, err)
}
