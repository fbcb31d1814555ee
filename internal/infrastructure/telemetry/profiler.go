package telemetry

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// Profiler pushes continuous profiles to Pyroscope. The zero value and a nil
// *Profiler are disabled.
type Profiler struct {
	sdk  *pyroscope.Profiler
	stop sync.Once
}

// StartProfiler begins profiling when cfg.Profiles is set. CPU covers layout
// and rasterizing; the allocation profiles cover document buffers.
func StartProfiler(cfg Config, logger *zap.Logger) (*Profiler, error) {
	if !cfg.Profiles {
		return &Profiler{}, nil
	}
	if cfg.ProfilesAddress == "" || cfg.ServiceName == "" {
		return nil, errors.New("telemetry: profiling needs a server address and a service name")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	tags := map[string]string{"version": ServiceVersion}
	if host, err := os.Hostname(); err == nil {
		tags["hostname"] = host
	}
	sdk, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.ServiceName,
		ServerAddress:   cfg.ProfilesAddress,
		Logger:          logger.Named("pyroscope").Sugar(),
		Tags:            tags,
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: start profiler: %w", err)
	}
	logger.Info("Profiling", zap.String("server", cfg.ProfilesAddress))
	return &Profiler{sdk: sdk}, nil
}

func (p *Profiler) IsEnabled() bool {
	return p != nil && p.sdk != nil
}

// Stop flushes pending profiles. Later calls do nothing.
func (p *Profiler) Stop() error {
	if !p.IsEnabled() {
		return nil
	}
	var err error
	p.stop.Do(func() { err = p.sdk.Stop() })
	return err
}
