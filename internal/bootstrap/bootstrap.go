package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	tea "github.com/charmbracelet/bubbletea"

	batchinadapter "rescollect/internal/modules/batch/adapter/in"
	batchoutadapter "rescollect/internal/modules/batch/adapter/out"
	batchin "rescollect/internal/modules/batch/port/in"
	batchusecase "rescollect/internal/modules/batch/usecase"
	"rescollect/internal/modules/collector/adapter/in/httpapi"
	collectoroutadapter "rescollect/internal/modules/collector/adapter/out"
	collectorout "rescollect/internal/modules/collector/port/out"
	collectorservice "rescollect/internal/modules/collector/service"
	collectorusecase "rescollect/internal/modules/collector/usecase"
	measurementinadapter "rescollect/internal/modules/measurement/adapter/in"
	measurementoutadapter "rescollect/internal/modules/measurement/adapter/out"
	measurementin "rescollect/internal/modules/measurement/port/in"
	measurementservice "rescollect/internal/modules/measurement/service"
	measurementusecase "rescollect/internal/modules/measurement/usecase"
	rowsinadapter "rescollect/internal/modules/rows/adapter/in"
	rowsoutadapter "rescollect/internal/modules/rows/adapter/out"
	rowsin "rescollect/internal/modules/rows/port/in"
	rowsout "rescollect/internal/modules/rows/port/out"
	rowsservice "rescollect/internal/modules/rows/service"
	rowsusecase "rescollect/internal/modules/rows/usecase"
	"rescollect/internal/platform/clock"
	"rescollect/internal/platform/config"
	"rescollect/internal/platform/id"
	uiapp "rescollect/internal/ui/app"
)

// ClientUI carries the callbacks a front end receives from the row use case.
// Nil fields fall back to no-op implementations.
type ClientUI struct {
	View      rowsout.RowView
	Notifier  rowsout.Notifier
	Presenter measurementin.Presenter
	// OnReset runs after a successful reset, once the row view is cleared.
	OnReset func(ctx context.Context) error
}

// Client is the operator side: it talks to a collector over HTTP.
type Client struct {
	MeasurementCLI measurementinadapter.CLIHandler
	RowsCLI        rowsinadapter.CLIHandler
	BatchCLI       batchinadapter.CLIHandler

	rows  rowsin.Usecase
	batch batchin.Usecase
}

func NewClient(cfg config.Config, logger *slog.Logger, ui ClientUI) *Client {
	// The snapshot stream stays open for a whole measurement, so the
	// acquisition client carries no overall timeout.
	source := measurementoutadapter.NewHTTPAcquisitionSource(cfg.Client.BaseURL, &http.Client{})
	measurementUC := measurementusecase.NewInteractor(measurementservice.NewSessionService(
		source,
		clock.SystemClock{},
		measurementservice.WithLogger(logger.With("module", "measurement")),
	))

	batchUC := batchusecase.NewInteractor(batchoutadapter.NewHTTPMetadataStore(cfg.Client.BaseURL, cfg.Client.Timeout))

	opts := []rowsusecase.Option{rowsusecase.WithLogger(logger.With("module", "rows"))}
	if ui.OnReset != nil {
		opts = append(opts, rowsusecase.WithResetHook(ui.OnReset))
	}
	rowsUC := rowsusecase.NewInteractor(
		rowsservice.NewRowService(rowsoutadapter.NewHTTPRowStore(cfg.Client.BaseURL, cfg.Client.Timeout)),
		measurementUC,
		ui.View,
		ui.Notifier,
		ui.Presenter,
		opts...,
	)

	return &Client{
		MeasurementCLI: measurementinadapter.NewCLIHandler(measurementUC),
		RowsCLI:        rowsinadapter.NewCLIHandler(rowsUC),
		BatchCLI:       batchinadapter.NewCLIHandler(batchUC),
		rows:           rowsUC,
		batch:          batchUC,
	}
}

// Server is the collector side: meter polling plus the HTTP surface.
type Server struct {
	Controller *collectorservice.Controller
	Handler    http.Handler

	repo  collectorout.Repository
	meter collectorout.Meter
}

func NewServer(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	repo, err := collectoroutadapter.NewSQLiteRepository(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("new record repository: %w", err)
	}

	meter, err := newMeter(ctx, cfg.Meter, logger)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	ctrl := collectorservice.NewController(
		meter,
		repo,
		clock.SystemClock{},
		id.UUID{},
		cfg.Server.Cycles,
		cfg.Server.UpdateInterval,
		collectorservice.WithLogger(logger.With("module", "collector")),
	)
	return &Server{
		Controller: ctrl,
		Handler:    httpapi.New(collectorusecase.NewInteractor(ctrl), logger.With("module", "httpapi")),
		repo:       repo,
		meter:      meter,
	}, nil
}

func newMeter(ctx context.Context, cfg config.MeterConfig, logger *slog.Logger) (collectorout.Meter, error) {
	switch cfg.Kind {
	case config.MeterPlugin:
		var pluginLog io.Writer
		if logger.Enabled(ctx, slog.LevelDebug) {
			pluginLog = slog.NewLogLogger(logger.Handler(), slog.LevelDebug).Writer()
		}
		meter, err := collectoroutadapter.NewPluginMeter(ctx, cfg.PluginBinary, pluginLog)
		if err != nil {
			return nil, fmt.Errorf("start meter plugin: %w", err)
		}
		logger.Info("meter plugin started", "binary", cfg.PluginBinary)
		return meter, nil
	case config.MeterFake:
		logger.Info("using simulated meter", "switch", cfg.SwitchDuration)
		return collectoroutadapter.NewFakeMeter(cfg.SwitchDuration), nil
	default:
		return nil, fmt.Errorf("unknown meter kind %q", cfg.Kind)
	}
}

func (s *Server) Close() error {
	meterErr := s.meter.Close()
	if err := s.repo.Close(); err != nil {
		return err
	}
	return meterErr
}

func RunTUI(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	bridge := uiapp.NewBridge()
	var client *Client
	client = NewClient(cfg, logger, ClientUI{
		View:      bridge,
		Notifier:  bridge,
		Presenter: bridge,
		OnReset: func(ctx context.Context) error {
			md, err := client.batch.Show(ctx)
			if err != nil {
				return err
			}
			bridge.ShowMetadata(md)
			return nil
		},
	})

	model := uiapp.NewModel(ctx, client.rows, client.batch)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	bridge.Attach(program)
	_, err := program.Run()
	return err
}
