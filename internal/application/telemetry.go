package application

import (
	"github.com/bnema/feedlink/internal/ports"
	"go.uber.org/zap"
)

// Telemetry carries the logger and metrics recorder shared by the
// components. The zero value is usable and discards everything.
type Telemetry struct {
	Logger   *zap.Logger
	Recorder ports.Recorder
}

func (t Telemetry) named(name string) Telemetry {
	if t.Logger == nil {
		t.Logger = zap.NewNop()
	}
	if t.Recorder == nil {
		t.Recorder = ports.NopRecorder{}
	}
	t.Logger = t.Logger.Named(name)
	return t
}
