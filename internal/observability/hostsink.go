package observability

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// HostSink receives log lines destined for the host application's own log.
type HostSink interface {
	LogMessage(ctx context.Context, message string) error
}

// AttachHostSink tees every entry at or above minLevel into the host's log.
// It replaces the global logger and returns the new instance.
func AttachHostSink(sink HostSink, minLevel zapcore.Level) *zap.Logger {
	base := GetLogger()
	logger := base.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, NewHostCore(sink, minLevel))
	}))
	globalLogger.Store(logger)
	return logger
}

// NewHostCore builds a zapcore.Core that forwards console-encoded entries to a HostSink.
func NewHostCore(sink HostSink, minLevel zapcore.Level) zapcore.Core {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = ""
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return &hostCore{
		LevelEnabler: minLevel,
		enc:          zapcore.NewConsoleEncoder(encCfg),
		sink:         sink,
	}
}

type hostCore struct {
	zapcore.LevelEnabler
	enc  zapcore.Encoder
	sink HostSink
}

func (h *hostCore) With(fields []zapcore.Field) zapcore.Core {
	enc := h.enc.Clone()
	for _, f := range fields {
		f.AddTo(enc)
	}
	return &hostCore{LevelEnabler: h.LevelEnabler, enc: enc, sink: h.sink}
}

func (h *hostCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if h.Enabled(ent.Level) {
		return ce.AddCore(ent, h)
	}
	return ce
}

func (h *hostCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := h.enc.EncodeEntry(ent, fields)
	if err != nil {
		return err
	}
	line := strings.TrimRight(buf.String(), "\n")
	buf.Free()
	// The sink is best effort; a closed connection must not break local logging.
	_ = h.sink.LogMessage(context.Background(), line)
	return nil
}

func (h *hostCore) Sync() error { return nil }
