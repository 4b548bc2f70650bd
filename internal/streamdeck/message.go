package streamdeck

import (
	"errors"
	"fmt"

	json "github.com/json-iterator/go"
)

// ErrMalformedMessage is returned when an inbound frame is not a valid event envelope.
var ErrMalformedMessage = errors.New("malformed message from host")

// Settings is the free-form per-instance settings object persisted by the host.
type Settings map[string]interface{}

// String returns the string value stored under key, or "" if it is absent or not a string.
func (s Settings) String(key string) string {
	if s == nil {
		return ""
	}
	v, ok := s[key].(string)
	if !ok {
		return ""
	}
	return v
}

// Clone returns a shallow copy.
func (s Settings) Clone() Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Message is the envelope of every frame the host sends.
type Message struct {
	Event      Event           `json:"event"`
	Action     string          `json:"action,omitempty"`
	Context    string          `json:"context,omitempty"`
	Device     string          `json:"device,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	DeviceInfo *DeviceInfo     `json:"deviceInfo,omitempty"`
}

// Coordinates locates a key on the device grid.
type Coordinates struct {
	Column int `json:"column"`
	Row    int `json:"row"`
}

// KeyPayload accompanies keyDown and keyUp.
type KeyPayload struct {
	Settings         Settings    `json:"settings"`
	Coordinates      Coordinates `json:"coordinates"`
	State            int         `json:"state"`
	UserDesiredState int         `json:"userDesiredState"`
	IsInMultiAction  bool        `json:"isInMultiAction"`
}

// AppearPayload accompanies willAppear, willDisappear and didReceiveSettings.
type AppearPayload struct {
	Settings        Settings    `json:"settings"`
	Coordinates     Coordinates `json:"coordinates"`
	State           int         `json:"state"`
	IsInMultiAction bool        `json:"isInMultiAction"`
	Controller      string      `json:"controller,omitempty"`
}

// DeviceSize is the key grid of a device.
type DeviceSize struct {
	Columns int `json:"columns"`
	Rows    int `json:"rows"`
}

// DeviceInfo describes a connected keypad.
type DeviceInfo struct {
	ID   string     `json:"id,omitempty"`
	Name string     `json:"name"`
	Type int        `json:"type"`
	Size DeviceSize `json:"size"`
}

// ApplicationPayload accompanies applicationDidLaunch and applicationDidTerminate.
type ApplicationPayload struct {
	Application string `json:"application"`
}

// KeyEvent is delivered for keyDown and keyUp.
type KeyEvent struct {
	Action  string
	Context string
	Device  string
	Payload KeyPayload
}

// AppearEvent is delivered for willAppear and willDisappear.
type AppearEvent struct {
	Action  string
	Context string
	Device  string
	Payload AppearPayload
}

// SettingsEvent is delivered for didReceiveSettings.
type SettingsEvent struct {
	Action  string
	Context string
	Device  string
	Payload AppearPayload
}

// DeviceEvent is delivered for deviceDidConnect and deviceDidDisconnect.
// Info is zero for disconnects.
type DeviceEvent struct {
	Device string
	Info   DeviceInfo
}

// ApplicationEvent is delivered for applicationDidLaunch and applicationDidTerminate.
type ApplicationEvent struct {
	Application string
}

// SendToPluginEvent carries an arbitrary object posted by the property inspector.
type SendToPluginEvent struct {
	Action  string
	Context string
	Payload Settings
}

// DecodeMessage parses one inbound frame.
func DecodeMessage(raw []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if msg.Event == "" {
		return nil, fmt.Errorf("%w: missing event field", ErrMalformedMessage)
	}
	return &msg, nil
}

// decodePayload unmarshals the raw payload into v. An absent payload leaves v untouched.
func (m *Message) decodePayload(v interface{}) error {
	if len(m.Payload) == 0 || string(m.Payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("%w: %s payload: %v", ErrMalformedMessage, m.Event, err)
	}
	return nil
}

// outbound is the envelope for every command the plugin sends.
type outbound struct {
	Event   Event       `json:"event"`
	Action  string      `json:"action,omitempty"`
	Context string      `json:"context,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

type registrationFrame struct {
	Event string `json:"event"`
	UUID  string `json:"uuid"`
}

type titlePayload struct {
	Title  string `json:"title"`
	Target Target `json:"target"`
}

type statePayload struct {
	State int `json:"state"`
}

type logPayload struct {
	Message string `json:"message"`
}

type urlPayload struct {
	URL string `json:"url"`
}
