package streamdeck_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/deckscript/internal/streamdeck"
)

func TestDispatcher_RoutesEvents(t *testing.T) {
	tests := []struct {
		name   string
		frame  string
		method string
		want   interface{}
	}{
		{
			name:   "keyDown",
			frame:  `{"action":"com.xkilldash9x.deckscript.run","event":"keyDown","context":"CTX1","device":"DEV1","payload":{"settings":{"applescript":"beep"},"coordinates":{"column":3,"row":1},"state":0,"isInMultiAction":false}}`,
			method: "KeyDown",
			want: streamdeck.KeyEvent{
				Action:  "com.xkilldash9x.deckscript.run",
				Context: "CTX1",
				Device:  "DEV1",
				Payload: streamdeck.KeyPayload{
					Settings:    streamdeck.Settings{"applescript": "beep"},
					Coordinates: streamdeck.Coordinates{Column: 3, Row: 1},
				},
			},
		},
		{
			name:   "keyUp",
			frame:  `{"action":"a","event":"keyUp","context":"CTX1","device":"DEV1","payload":{"settings":{},"coordinates":{"column":0,"row":0},"state":1,"userDesiredState":0}}`,
			method: "KeyUp",
			want: streamdeck.KeyEvent{
				Action: "a", Context: "CTX1", Device: "DEV1",
				Payload: streamdeck.KeyPayload{Settings: streamdeck.Settings{}, State: 1},
			},
		},
		{
			name:   "willAppear",
			frame:  `{"action":"a","event":"willAppear","context":"CTX2","device":"DEV1","payload":{"settings":{"applescript":"say \"hi\""},"coordinates":{"column":1,"row":2},"controller":"Keypad"}}`,
			method: "WillAppear",
			want: streamdeck.AppearEvent{
				Action: "a", Context: "CTX2", Device: "DEV1",
				Payload: streamdeck.AppearPayload{
					Settings:    streamdeck.Settings{"applescript": `say "hi"`},
					Coordinates: streamdeck.Coordinates{Column: 1, Row: 2},
					Controller:  "Keypad",
				},
			},
		},
		{
			name:   "willDisappear",
			frame:  `{"action":"a","event":"willDisappear","context":"CTX2","device":"DEV1","payload":{"settings":{}}}`,
			method: "WillDisappear",
			want: streamdeck.AppearEvent{
				Action: "a", Context: "CTX2", Device: "DEV1",
				Payload: streamdeck.AppearPayload{Settings: streamdeck.Settings{}},
			},
		},
		{
			name:   "deviceDidConnect",
			frame:  `{"event":"deviceDidConnect","device":"DEV9","deviceInfo":{"name":"Stream Deck XL","type":2,"size":{"columns":8,"rows":4}}}`,
			method: "DeviceDidConnect",
			want: streamdeck.DeviceEvent{
				Device: "DEV9",
				Info:   streamdeck.DeviceInfo{ID: "DEV9", Name: "Stream Deck XL", Type: 2, Size: streamdeck.DeviceSize{Columns: 8, Rows: 4}},
			},
		},
		{
			name:   "deviceDidDisconnect",
			frame:  `{"event":"deviceDidDisconnect","device":"DEV9"}`,
			method: "DeviceDidDisconnect",
			want:   streamdeck.DeviceEvent{Device: "DEV9"},
		},
		{
			name:   "applicationDidLaunch",
			frame:  `{"event":"applicationDidLaunch","payload":{"application":"com.apple.mail"}}`,
			method: "ApplicationDidLaunch",
			want:   streamdeck.ApplicationEvent{Application: "com.apple.mail"},
		},
		{
			name:   "applicationDidTerminate",
			frame:  `{"event":"applicationDidTerminate","payload":{"application":"com.apple.mail"}}`,
			method: "ApplicationDidTerminate",
			want:   streamdeck.ApplicationEvent{Application: "com.apple.mail"},
		},
		{
			name:   "sendToPlugin",
			frame:  `{"action":"a","event":"sendToPlugin","context":"CTX3","payload":{"applescript":"return 1"}}`,
			method: "SendToPlugin",
			want: streamdeck.SendToPluginEvent{
				Action: "a", Context: "CTX3",
				Payload: streamdeck.Settings{"applescript": "return 1"},
			},
		},
		{
			name:   "didReceiveSettings",
			frame:  `{"action":"a","event":"didReceiveSettings","context":"CTX3","device":"DEV1","payload":{"settings":{"applescript":"return 2"},"coordinates":{"column":0,"row":1},"isInMultiAction":true}}`,
			method: "DidReceiveSettings",
			want: streamdeck.SettingsEvent{
				Action: "a", Context: "CTX3", Device: "DEV1",
				Payload: streamdeck.AppearPayload{
					Settings:        streamdeck.Settings{"applescript": "return 2"},
					Coordinates:     streamdeck.Coordinates{Row: 1},
					IsInMultiAction: true,
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRecordingHandler()
			d := streamdeck.NewDispatcher(h, zaptest.NewLogger(t))

			require.NoError(t, d.Dispatch(context.Background(), []byte(tt.frame)))

			calls := h.Calls()
			require.Len(t, calls, 1)
			assert.Equal(t, tt.method, calls[0].Method)
			if diff := cmp.Diff(tt.want, calls[0].Event); diff != "" {
				t.Errorf("event mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDispatcher_IgnoresUnhandledEvents(t *testing.T) {
	h := newRecordingHandler()
	d := streamdeck.NewDispatcher(h, zaptest.NewLogger(t))

	frames := []string{
		`{"event":"systemDidWakeUp"}`,
		`{"event":"propertyInspectorDidAppear","action":"a","context":"c","device":"d"}`,
		`{"event":"didReceiveGlobalSettings","payload":{"settings":{}}}`,
		`{"event":"somethingNew","payload":{"x":1}}`,
	}
	for _, f := range frames {
		assert.NoError(t, d.Dispatch(context.Background(), []byte(f)), f)
	}
	assert.Empty(t, h.Calls())
}

func TestDispatcher_Errors(t *testing.T) {
	d := streamdeck.NewDispatcher(newRecordingHandler(), zaptest.NewLogger(t))

	t.Run("malformed json", func(t *testing.T) {
		err := d.Dispatch(context.Background(), []byte(`{"event":`))
		assert.ErrorIs(t, err, streamdeck.ErrMalformedMessage)
	})

	t.Run("missing event", func(t *testing.T) {
		err := d.Dispatch(context.Background(), []byte(`{"context":"c"}`))
		assert.ErrorIs(t, err, streamdeck.ErrMalformedMessage)
	})

	t.Run("payload of the wrong shape", func(t *testing.T) {
		err := d.Dispatch(context.Background(), []byte(`{"event":"keyDown","context":"c","payload":"nope"}`))
		assert.ErrorIs(t, err, streamdeck.ErrMalformedMessage)
	})

	t.Run("handler error is wrapped with the event and context", func(t *testing.T) {
		boom := errors.New("boom")
		h := newRecordingHandler()
		h.err = boom
		d := streamdeck.NewDispatcher(h, zaptest.NewLogger(t))

		err := d.Dispatch(context.Background(), []byte(`{"event":"keyDown","context":"CTX"}`))
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), `keyDown handler for context "CTX"`)
	})
}

func TestSettingsString(t *testing.T) {
	s := streamdeck.Settings{"applescript": "beep", "count": 3.0}
	assert.Equal(t, "beep", s.String("applescript"))
	assert.Equal(t, "", s.String("count"))
	assert.Equal(t, "", s.String("missing"))
	assert.Equal(t, "", streamdeck.Settings(nil).String("applescript"))

	clone := s.Clone()
	clone["applescript"] = "changed"
	assert.Equal(t, "beep", s.String("applescript"))
}
