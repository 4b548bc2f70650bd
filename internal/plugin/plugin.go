// Package plugin implements the AppleScript action: pressing a key runs the
// script stored in that key's settings.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/deckscript/internal/applescript"
	"github.com/xkilldash9x/deckscript/internal/config"
	"github.com/xkilldash9x/deckscript/internal/streamdeck"
)

var (
	// ErrNoScript is returned when a key has no script configured.
	ErrNoScript = errors.New("no script configured for this key")
	// ErrThrottled is returned when key presses arrive faster than the launch rate allows.
	ErrThrottled = errors.New("script launch rate exceeded")
	// ErrBusy is returned when every script slot is occupied.
	ErrBusy = errors.New("too many scripts running")
)

// languageKey optionally overrides the OSA language per key.
const languageKey = "language"

// instance is one visible key bound to this plugin's action.
type instance struct {
	Action      string
	Device      string
	Coordinates streamdeck.Coordinates
	Settings    streamdeck.Settings
}

// Plugin is the streamdeck.Handler for the AppleScript action.
type Plugin struct {
	cfg     config.ScriptConfig
	sender  streamdeck.Sender
	runner  applescript.Runner
	logger  *zap.Logger
	limiter *rate.Limiter
	group   *errgroup.Group

	mu        sync.RWMutex
	instances map[string]*instance
	devices   map[string]streamdeck.DeviceInfo
	apps      map[string]struct{}
}

// New creates the plugin. sender is usually the *streamdeck.Client. Failures are
// reported through logger at Warn; pass a logger from observability.AttachHostSink
// so they reach the host's log.
func New(cfg config.ScriptConfig, sender streamdeck.Sender, runner applescript.Runner, logger *zap.Logger) *Plugin {
	p := &Plugin{
		cfg:       cfg,
		sender:    sender,
		runner:    runner,
		logger:    logger.Named("plugin"),
		group:     &errgroup.Group{},
		instances: make(map[string]*instance),
		devices:   make(map[string]streamdeck.DeviceInfo),
		apps:      make(map[string]struct{}),
	}
	if cfg.MaxConcurrent > 0 {
		p.group.SetLimit(cfg.MaxConcurrent)
	}
	if cfg.LaunchesPerSecond > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(cfg.LaunchesPerSecond), cfg.Burst)
	}
	return p
}

// SeedDevices records the devices listed in the registration info.
func (p *Plugin) SeedDevices(devices []streamdeck.DeviceInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, d := range devices {
		p.devices[d.ID] = d
	}
}

// KeyDown runs the key's script in the background.
func (p *Plugin) KeyDown(ctx context.Context, ev streamdeck.KeyEvent) error {
	log := p.logger.With(
		zap.String("context", ev.Context),
		zap.String("device", ev.Device),
	)

	script, err := p.resolveScript(ev.Context, ev.Payload.Settings)
	if err != nil {
		p.reportFailure(ctx, log, ev.Context, err)
		return err
	}
	if p.limiter != nil && !p.limiter.Allow() {
		p.reportFailure(ctx, log, ev.Context, ErrThrottled)
		return ErrThrottled
	}

	log = log.With(zap.String("invocation_id", uuid.NewString()))
	if !p.group.TryGo(func() error {
		p.execute(ctx, log, ev.Context, script)
		return nil
	}) {
		err := fmt.Errorf("%w (limit %d)", ErrBusy, p.cfg.MaxConcurrent)
		p.reportFailure(ctx, log, ev.Context, err)
		return err
	}
	log.Info("Script launched.", zap.Bool("from_file", strings.TrimSpace(script.Source) == ""))
	return nil
}

func (p *Plugin) execute(ctx context.Context, log *zap.Logger, contextID string, script applescript.Script) {
	res, err := p.runner.Run(ctx, script)
	if err != nil {
		if stderr := strings.TrimSpace(res.Stderr); stderr != "" {
			log = log.With(zap.String("stderr", stderr))
		}
		p.reportFailure(ctx, log, contextID, err)
		return
	}

	log.Info("Script succeeded.", zap.Duration("duration", res.Duration))
	if err := p.sender.ShowOk(ctx, contextID); err != nil {
		log.Debug("Could not show ok.", zap.Error(err))
	}
	if p.cfg.ShowOutputAsTitle {
		title := strings.TrimSpace(res.Stdout)
		if err := p.sender.SetTitle(ctx, contextID, title, streamdeck.TargetBoth); err != nil {
			log.Debug("Could not set title.", zap.Error(err))
		}
	}
}

// reportFailure shows the alert on the key and logs the reason at Warn. The
// logger handed to New carries the host sink, so the line also lands in the
// host's log.
func (p *Plugin) reportFailure(ctx context.Context, log *zap.Logger, contextID string, err error) {
	log.Warn("Key press failed.", zap.Error(err))
	p.alert(ctx, contextID)
}

func (p *Plugin) alert(ctx context.Context, contextID string) {
	if err := p.sender.ShowAlert(ctx, contextID); err != nil {
		p.logger.Debug("Could not show alert.", zap.String("context", contextID), zap.Error(err))
	}
}

// resolveScript reads the script from the event settings, falling back to the
// settings cached for the context.
func (p *Plugin) resolveScript(contextID string, settings streamdeck.Settings) (applescript.Script, error) {
	script := p.scriptFrom(settings)
	if script.IsEmpty() {
		p.mu.RLock()
		if inst, ok := p.instances[contextID]; ok {
			script = p.scriptFrom(inst.Settings)
		}
		p.mu.RUnlock()
	}
	if script.IsEmpty() {
		return script, ErrNoScript
	}
	if strings.TrimSpace(script.Source) == "" && script.Path != "" {
		expanded, err := homedir.Expand(script.Path)
		if err != nil {
			return script, fmt.Errorf("invalid script path %q: %w", script.Path, err)
		}
		script.Path = expanded
	}
	return script, nil
}

func (p *Plugin) scriptFrom(settings streamdeck.Settings) applescript.Script {
	return applescript.Script{
		Source:   settings.String(p.cfg.SettingsKey),
		Path:     settings.String(p.cfg.PathKey),
		Language: settings.String(languageKey),
	}
}

// KeyUp is logged only.
func (p *Plugin) KeyUp(_ context.Context, ev streamdeck.KeyEvent) error {
	p.logger.Debug("Key released.", zap.String("context", ev.Context))
	return nil
}

// WillAppear starts tracking a visible key.
func (p *Plugin) WillAppear(_ context.Context, ev streamdeck.AppearEvent) error {
	p.mu.Lock()
	p.instances[ev.Context] = &instance{
		Action:      ev.Action,
		Device:      ev.Device,
		Coordinates: ev.Payload.Coordinates,
		Settings:    ev.Payload.Settings.Clone(),
	}
	p.mu.Unlock()

	p.logger.Debug("Key appeared.",
		zap.String("context", ev.Context),
		zap.Int("column", ev.Payload.Coordinates.Column),
		zap.Int("row", ev.Payload.Coordinates.Row),
	)
	return nil
}

// WillDisappear stops tracking a key.
func (p *Plugin) WillDisappear(_ context.Context, ev streamdeck.AppearEvent) error {
	p.mu.Lock()
	delete(p.instances, ev.Context)
	p.mu.Unlock()

	p.logger.Debug("Key disappeared.", zap.String("context", ev.Context))
	return nil
}

// DidReceiveSettings refreshes the cached settings for a key.
func (p *Plugin) DidReceiveSettings(_ context.Context, ev streamdeck.SettingsEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	inst, ok := p.instances[ev.Context]
	if !ok {
		inst = &instance{Action: ev.Action, Device: ev.Device}
		p.instances[ev.Context] = inst
	}
	inst.Coordinates = ev.Payload.Coordinates
	inst.Settings = ev.Payload.Settings.Clone()
	return nil
}

// SendToPlugin merges values posted by the property inspector into the key's
// settings and asks the host to persist them.
func (p *Plugin) SendToPlugin(ctx context.Context, ev streamdeck.SendToPluginEvent) error {
	if len(ev.Payload) == 0 {
		return nil
	}

	p.mu.Lock()
	inst, ok := p.instances[ev.Context]
	if !ok {
		inst = &instance{Action: ev.Action}
		p.instances[ev.Context] = inst
	}
	merged := inst.Settings.Clone()
	for k, v := range ev.Payload {
		merged[k] = v
	}
	inst.Settings = merged
	p.mu.Unlock()

	if err := p.sender.SetSettings(ctx, ev.Context, merged.Clone()); err != nil {
		return fmt.Errorf("failed to persist settings: %w", err)
	}
	return nil
}

// DeviceDidConnect records a device.
func (p *Plugin) DeviceDidConnect(_ context.Context, ev streamdeck.DeviceEvent) error {
	p.mu.Lock()
	p.devices[ev.Device] = ev.Info
	p.mu.Unlock()

	p.logger.Info("Device connected.",
		zap.String("device", ev.Device),
		zap.String("name", ev.Info.Name),
		zap.Int("columns", ev.Info.Size.Columns),
		zap.Int("rows", ev.Info.Size.Rows),
	)
	return nil
}

// DeviceDidDisconnect forgets a device.
func (p *Plugin) DeviceDidDisconnect(_ context.Context, ev streamdeck.DeviceEvent) error {
	p.mu.Lock()
	delete(p.devices, ev.Device)
	p.mu.Unlock()

	p.logger.Info("Device disconnected.", zap.String("device", ev.Device))
	return nil
}

// ApplicationDidLaunch records a monitored application as running.
func (p *Plugin) ApplicationDidLaunch(_ context.Context, ev streamdeck.ApplicationEvent) error {
	p.mu.Lock()
	p.apps[ev.Application] = struct{}{}
	p.mu.Unlock()

	p.logger.Info("Application launched.", zap.String("application", ev.Application))
	return nil
}

// ApplicationDidTerminate records a monitored application as stopped.
func (p *Plugin) ApplicationDidTerminate(_ context.Context, ev streamdeck.ApplicationEvent) error {
	p.mu.Lock()
	delete(p.apps, ev.Application)
	p.mu.Unlock()

	p.logger.Info("Application terminated.", zap.String("application", ev.Application))
	return nil
}

// Wait blocks until every launched script has finished.
func (p *Plugin) Wait() {
	_ = p.group.Wait()
}

// Contexts returns the visible keys, sorted.
func (p *Plugin) Contexts() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.instances))
	for c := range p.instances {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Settings returns a copy of the cached settings for a key.
func (p *Plugin) Settings(contextID string) (streamdeck.Settings, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	inst, ok := p.instances[contextID]
	if !ok {
		return nil, false
	}
	return inst.Settings.Clone(), true
}

// Device returns the info recorded for a connected device.
func (p *Plugin) Device(id string) (streamdeck.DeviceInfo, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	d, ok := p.devices[id]
	return d, ok
}

// RunningApplications returns the monitored applications currently running, sorted.
func (p *Plugin) RunningApplications() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.apps))
	for a := range p.apps {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

var _ streamdeck.Handler = (*Plugin)(nil)
