// Command fakemeter is a meter driver plugin that simulates the instrument.
// It switches mode every RESCOLLECT_METER_SWITCH (default 2s).
package main

import (
	"context"
	"os"
	"time"

	adapterout "rescollect/internal/modules/collector/adapter/out"
	meterrpc "rescollect/internal/modules/collector/adapter/out/rpc"
	collectorout "rescollect/internal/modules/collector/port/out"

	"github.com/hashicorp/go-plugin"
)

type server struct {
	meter collectorout.Meter
}

func (s *server) Describe(_ context.Context, _ *meterrpc.Empty) (*meterrpc.Description, error) {
	return &meterrpc.Description{Name: "fakemeter", Version: "1.0.0"}, nil
}

func (s *server) Read(ctx context.Context, _ *meterrpc.Empty) (*meterrpc.Reading, error) {
	r, err := s.meter.Read(ctx)
	if err != nil {
		return nil, err
	}
	return &meterrpc.Reading{Mode: string(r.Mode), Value: r.Value}, nil
}

func main() {
	switchEvery := 2 * time.Second
	if raw := os.Getenv("RESCOLLECT_METER_SWITCH"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			switchEvery = d
		}
	}
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: meterrpc.HandshakeConfig,
		Plugins:         meterrpc.PluginMap(&server{meter: adapterout.NewFakeMeter(switchEvery)}),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
