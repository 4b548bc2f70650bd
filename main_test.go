package main

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/deckscript/internal/config"
	"github.com/xkilldash9x/deckscript/internal/observability"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) Sync() error { return nil }

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestHandlePanic(t *testing.T) {
	observability.ResetForTest()
	t.Cleanup(observability.ResetForTest)
	out := &syncBuffer{}
	observability.Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "test"}, out)

	exitCode := -1
	osExit = func(code int) { exitCode = code }
	t.Cleanup(func() { osExit = os.Exit })

	func() {
		defer handlePanic()
		panic("boom")
	}()

	require.Equal(t, 2, exitCode)
	assert.Contains(t, out.String(), `"msg":"Plugin crashed."`)
	assert.Contains(t, out.String(), `"panic":"boom"`)
}

func TestHandlePanic_NoPanic(t *testing.T) {
	called := false
	osExit = func(int) { called = true }
	t.Cleanup(func() { osExit = os.Exit })

	func() {
		defer handlePanic()
	}()

	assert.False(t, called)
}
