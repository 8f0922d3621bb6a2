package bootstrap_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"rescollect/internal/bootstrap"
	batchdto "rescollect/internal/modules/batch/dto"
	"rescollect/internal/platform/config"
)

func TestClientTalksToServer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	cfg := config.Default()
	cfg.Storage.DBPath = filepath.Join(t.TempDir(), "collector.db")
	server, err := bootstrap.NewServer(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(func() { _ = server.Close() })

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("health status = %d", resp.StatusCode)
	}

	cfg.Client.BaseURL = ts.URL
	client := bootstrap.NewClient(cfg, logger, bootstrap.ClientUI{})

	rows, err := client.RowsCLI.List(ctx)
	if err != nil {
		t.Fatalf("list rows: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty collector, got %+v", rows)
	}

	md := batchdto.Metadata{DataType: "calibration", RouteID: "R-7", AmbientTemperatureRange: "20..25", Date: "2026-10-19"}
	if err := client.BatchCLI.Set(ctx, md); err != nil {
		t.Fatalf("set metadata: %v", err)
	}
	got, err := client.BatchCLI.Show(ctx)
	if err != nil {
		t.Fatalf("show metadata: %v", err)
	}
	if got != md {
		t.Fatalf("metadata = %+v, want %+v", got, md)
	}
}

func TestNewServerRejectsMissingPlugin(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Storage.DBPath = filepath.Join(t.TempDir(), "collector.db")
	cfg.Meter.Kind = config.MeterPlugin
	cfg.Meter.PluginBinary = filepath.Join(t.TempDir(), "missing-meter")

	if _, err := bootstrap.NewServer(context.Background(), cfg, slog.New(slog.DiscardHandler)); err == nil {
		t.Fatalf("expected plugin start failure")
	}
}
