package streamdeck

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/deckscript/internal/config"
)

// ErrClosed is returned by Sender methods once the connection has shut down.
var ErrClosed = errors.New("connection to host is closed")

// Client is the plugin's WebSocket connection to the host. It implements Sender.
type Client struct {
	cfg    config.ConnectionConfig
	reg    Registration
	logger *zap.Logger
	dialer *websocket.Dialer

	conn *websocket.Conn
	// Buffered channel of outbound frames.
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient creates a Client. Dial must be called before Run.
func NewClient(cfg config.ConnectionConfig, reg Registration, logger *zap.Logger) *Client {
	return &Client{
		cfg:    cfg,
		reg:    reg,
		logger: logger.Named("streamdeck"),
		dialer: &websocket.Dialer{HandshakeTimeout: cfg.DialTimeout},
		send:   make(chan []byte, cfg.SendBuffer),
		done:   make(chan struct{}),
	}
}

// URL returns the host endpoint the client connects to.
func (c *Client) URL() string {
	u := url.URL{Scheme: "ws", Host: net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.reg.Port))}
	return u.String()
}

// Dial connects to the host and writes the registration frame.
func (c *Client) Dial(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.URL(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect to host at %s: %w", c.URL(), err)
	}

	// Registration goes out before the write pump exists, so it is always the first frame.
	frame := registrationFrame{Event: c.reg.RegisterEvent, UUID: c.reg.PluginUUID}
	data, err := json.Marshal(frame)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to encode registration: %w", err)
	}
	conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		conn.Close()
		return fmt.Errorf("failed to register with host: %w", err)
	}

	c.conn = conn
	c.logger.Info("Registered with host.",
		zap.String("url", c.URL()),
		zap.String("register_event", c.reg.RegisterEvent),
		zap.String("host_version", c.reg.Info.Application.Version),
		zap.String("platform", c.reg.Info.Application.Platform),
	)
	return nil
}

// Run serves inbound events until ctx is cancelled or the host closes the connection.
// A normal close by the host returns nil.
func (c *Client) Run(ctx context.Context, h Handler) error {
	if c.conn == nil {
		return errors.New("run called before dial")
	}
	dispatcher := NewDispatcher(h, c.logger)

	readErr := make(chan error, 1)
	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		c.writePump()
	}()
	go func() {
		readErr <- c.readPump(ctx, dispatcher)
	}()

	select {
	case <-ctx.Done():
		c.Close()
		<-readErr
		<-writeDone
		return ctx.Err()
	case err := <-readErr:
		c.Close()
		<-writeDone
		return err
	}
}

// Close shuts the connection down. It is safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn == nil {
			return
		}
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.cfg.WriteWait))
		err = c.conn.Close()
	})
	return err
}

// readPump pumps frames from the host into the dispatcher.
func (c *Client) readPump(ctx context.Context, d *Dispatcher) error {
	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if c.closed() {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Info("Host closed the connection.")
				return nil
			}
			return fmt.Errorf("read from host failed: %w", err)
		}
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))

		if err := d.Dispatch(ctx, message); err != nil {
			c.logger.Warn("Failed to handle event.", zap.Error(err), zap.ByteString("frame", message))
		}
	}
}

// writePump pumps queued frames to the host and keeps the connection alive.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingPeriod())
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				if !c.closed() {
					c.logger.Error("Write to host failed.", zap.Error(err))
				}
				c.Close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if !c.closed() {
					c.logger.Error("Ping to host failed.", zap.Error(err))
				}
				c.Close()
				return
			}
		}
	}
}

func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// pingPeriod must be less than the pong wait.
func (c *Client) pingPeriod() time.Duration {
	return (c.cfg.PongWait * 9) / 10
}

func (c *Client) enqueue(ctx context.Context, frame outbound) error {
	if c.closed() {
		return ErrClosed
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", frame.Event, err)
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// --- Sender ---

func (c *Client) SetTitle(ctx context.Context, contextID, title string, target Target) error {
	return c.enqueue(ctx, outbound{Event: EventSetTitle, Context: contextID, Payload: titlePayload{Title: title, Target: target}})
}

func (c *Client) ShowAlert(ctx context.Context, contextID string) error {
	return c.enqueue(ctx, outbound{Event: EventShowAlert, Context: contextID})
}

func (c *Client) ShowOk(ctx context.Context, contextID string) error {
	return c.enqueue(ctx, outbound{Event: EventShowOk, Context: contextID})
}

func (c *Client) SetSettings(ctx context.Context, contextID string, settings Settings) error {
	if settings == nil {
		settings = Settings{}
	}
	return c.enqueue(ctx, outbound{Event: EventSetSettings, Context: contextID, Payload: settings})
}

func (c *Client) GetSettings(ctx context.Context, contextID string) error {
	return c.enqueue(ctx, outbound{Event: EventGetSettings, Context: contextID})
}

func (c *Client) SetState(ctx context.Context, contextID string, state int) error {
	return c.enqueue(ctx, outbound{Event: EventSetState, Context: contextID, Payload: statePayload{State: state}})
}

func (c *Client) LogMessage(ctx context.Context, message string) error {
	return c.enqueue(ctx, outbound{Event: EventLogMessage, Payload: logPayload{Message: message}})
}

func (c *Client) OpenURL(ctx context.Context, u string) error {
	return c.enqueue(ctx, outbound{Event: EventOpenURL, Payload: urlPayload{URL: u}})
}

func (c *Client) SendToPropertyInspector(ctx context.Context, action, contextID string, payload interface{}) error {
	return c.enqueue(ctx, outbound{Event: EventSendToPropertyInspector, Action: action, Context: contextID, Payload: payload})
}

var _ Sender = (*Client)(nil)
