package out

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"

	meterrpc "rescollect/internal/modules/collector/adapter/out/rpc"
	"rescollect/internal/modules/collector/domain"
	collectorout "rescollect/internal/modules/collector/port/out"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
)

const (
	defaultStartTimeout = 3 * time.Second
	defaultReadTimeout  = 2 * time.Second
)

// PluginMeter reads from a meter driver running as a go-plugin subprocess.
// The subprocess stays up for the lifetime of the meter.
type PluginMeter struct {
	client *plugin.Client
	rpc    meterrpc.MeterClient
}

// NewPluginMeter starts binary and checks it answers Describe. Plugin logs go
// to logOutput, or nowhere when it is nil.
func NewPluginMeter(ctx context.Context, binary string, logOutput io.Writer) (collectorout.Meter, error) {
	logger := hclog.New(&hclog.LoggerOptions{Name: "meter", Output: io.Discard, Level: hclog.NoLevel})
	if logOutput != nil {
		logger = hclog.New(&hclog.LoggerOptions{Name: "meter", Output: logOutput, Level: hclog.Warn})
	}
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  meterrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          meterrpc.PluginMap(nil),
		Cmd:              exec.Command(binary),
		Managed:          true,
		StartTimeout:     defaultStartTimeout,
		Logger:           logger,
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("start meter plugin: %w", err)
	}
	raw, err := rpcClient.Dispense(meterrpc.PluginMapKey)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("dispense meter plugin: %w", err)
	}
	typed, ok := raw.(meterrpc.MeterClient)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("meter rpc client type mismatch")
	}

	callCtx, cancel := callContext(ctx, defaultReadTimeout)
	defer cancel()
	if _, err := typed.Describe(callCtx); err != nil {
		client.Kill()
		return nil, fmt.Errorf("describe meter plugin: %w", err)
	}
	return &PluginMeter{client: client, rpc: typed}, nil
}

func (m *PluginMeter) Read(ctx context.Context) (domain.Reading, error) {
	callCtx, cancel := callContext(ctx, defaultReadTimeout)
	defer cancel()
	resp, err := m.rpc.Read(callCtx)
	if err != nil {
		return domain.Reading{}, fmt.Errorf("meter read: %w", err)
	}
	mode, err := domain.ParseMode(resp.Mode)
	if err != nil {
		return domain.Reading{}, err
	}
	return domain.Reading{Mode: mode, Value: resp.Value}, nil
}

func (m *PluginMeter) Close() error {
	m.client.Kill()
	return nil
}

func callContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
