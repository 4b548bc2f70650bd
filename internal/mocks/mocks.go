// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/deckscript/internal/applescript"
	"github.com/xkilldash9x/deckscript/internal/config"
	"github.com/xkilldash9x/deckscript/internal/streamdeck"
)

// -- Config Mock --

// MockConfig mocks the config.Interface.
type MockConfig struct {
	mock.Mock
}

func (m *MockConfig) Logger() config.LoggerConfig {
	args := m.Called()
	return args.Get(0).(config.LoggerConfig)
}

func (m *MockConfig) Script() config.ScriptConfig {
	args := m.Called()
	return args.Get(0).(config.ScriptConfig)
}

func (m *MockConfig) Connection() config.ConnectionConfig {
	args := m.Called()
	return args.Get(0).(config.ConnectionConfig)
}

func (m *MockConfig) SetScriptTimeout(d time.Duration) { m.Called(d) }
func (m *MockConfig) SetScriptLanguage(lang string)    { m.Called(lang) }

// -- Sender Mock --

// MockSender mocks streamdeck.Sender, standing in for the host connection.
type MockSender struct {
	mock.Mock
}

func (m *MockSender) SetTitle(ctx context.Context, contextID, title string, target streamdeck.Target) error {
	args := m.Called(ctx, contextID, title, target)
	return args.Error(0)
}

func (m *MockSender) ShowAlert(ctx context.Context, contextID string) error {
	args := m.Called(ctx, contextID)
	return args.Error(0)
}

func (m *MockSender) ShowOk(ctx context.Context, contextID string) error {
	args := m.Called(ctx, contextID)
	return args.Error(0)
}

func (m *MockSender) SetSettings(ctx context.Context, contextID string, settings streamdeck.Settings) error {
	args := m.Called(ctx, contextID, settings)
	return args.Error(0)
}

func (m *MockSender) GetSettings(ctx context.Context, contextID string) error {
	args := m.Called(ctx, contextID)
	return args.Error(0)
}

func (m *MockSender) SetState(ctx context.Context, contextID string, state int) error {
	args := m.Called(ctx, contextID, state)
	return args.Error(0)
}

func (m *MockSender) LogMessage(ctx context.Context, message string) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockSender) OpenURL(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

func (m *MockSender) SendToPropertyInspector(ctx context.Context, action, contextID string, payload interface{}) error {
	args := m.Called(ctx, action, contextID, payload)
	return args.Error(0)
}

// -- Runner Mock --

// MockRunner mocks applescript.Runner.
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, s applescript.Script) (applescript.Result, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(applescript.Result), args.Error(1)
}
