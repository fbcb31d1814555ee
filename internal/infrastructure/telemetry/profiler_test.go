package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartProfiler_Disabled(t *testing.T) {
	p, err := StartProfiler(Config{ProfilesAddress: "http://localhost:4040"}, nil)
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
}

func TestStartProfiler_NeedsAddressAndName(t *testing.T) {
	for name, cfg := range map[string]Config{
		"no address": {Profiles: true, ServiceName: "actdesk"},
		"no name":    {Profiles: true, ProfilesAddress: "http://localhost:4040"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := StartProfiler(cfg, nil)
			assert.ErrorContains(t, err, "server address and a service name")
		})
	}
}

func TestProfiler_NilStop(t *testing.T) {
	var p *Profiler
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
}
