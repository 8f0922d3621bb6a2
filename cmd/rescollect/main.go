package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"rescollect/internal/bootstrap"
	batchdto "rescollect/internal/modules/batch/dto"
	"rescollect/internal/platform/config"
	"rescollect/internal/platform/telemetry"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	logFile    string
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:           "rescollect",
		Short:         "Resonator frequency and resistance collector",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&flags.logFile, "log-file", "", "write logs to this file instead of stderr")

	root.AddCommand(newServeCmd(&flags))
	root.AddCommand(newMeasureCmd(&flags))
	root.AddCommand(newRowsCmd(&flags))
	root.AddCommand(newBatchCmd(&flags))
	root.AddCommand(newTUICmd(&flags))
	return root
}

// setup loads the configuration and builds the process logger: JSON for the
// collector, text for the operator commands. The returned closer releases the
// log file, if any.
func setup(flags *globalFlags, fallback io.Writer, structured bool) (config.Config, *slog.Logger, func(), error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return config.Config{}, nil, nil, err
	}

	out := fallback
	closer := func() {}
	if flags.logFile != "" {
		f, err := os.OpenFile(flags.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return config.Config{}, nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closer = func() { _ = f.Close() }
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(out, opts)
	if structured {
		handler = slog.NewJSONHandler(out, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return cfg, logger, closer, nil
}

func loadClient(flags *globalFlags, cmd *cobra.Command, ui bootstrap.ClientUI) (*bootstrap.Client, func(), error) {
	cfg, logger, closer, err := setup(flags, cmd.ErrOrStderr(), false)
	if err != nil {
		return nil, nil, err
	}
	return bootstrap.NewClient(cfg, logger, ui), closer, nil
}

func newServeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the collector: poll the meter and serve the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, closer, err := setup(flags, cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			defer closer()
			return serve(cmd.Context(), cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	otelShutdown, err := telemetry.Init(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName, version, cfg.Telemetry.Insecure)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	app, err := bootstrap.NewServer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("collector close failed", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           app.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Controller.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("collector listening", "addr", cfg.Server.Listen, "version", version, "meter", cfg.Meter.Kind)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		logger.Info("collector stopped")
		return nil
	})
	return g.Wait()
}

func newMeasureCmd(flags *globalFlags) *cobra.Command {
	var target int64
	var before bool

	measure := &cobra.Command{
		Use:   "measure",
		Short: "Run one measurement and store its row",
		Long: "Run one measurement. Without --target the row is appended. With --target the row " +
			"is replaced, or with --before a new row is inserted in front of it.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if before && !cmd.Flags().Changed("target") {
				return fmt.Errorf("--before requires --target")
			}
			var targetID *int64
			if cmd.Flags().Changed("target") {
				targetID = &target
			}

			progress := newTextPresenter(cmd.OutOrStdout())
			client, closer, err := loadClient(flags, cmd, bootstrap.ClientUI{
				Notifier:  newTextNotifier(cmd.ErrOrStderr()),
				Presenter: progress,
			})
			if err != nil {
				return err
			}
			defer closer()

			out, err := client.RowsCLI.Measure(cmd.Context(), targetID, before)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s in %s\n", out.Outcome, out.Request, out.FinishedAt.Sub(out.StartedAt).Round(time.Millisecond))
			return nil
		},
	}
	measure.Flags().Int64Var(&target, "target", 0, "row id to re-measure")
	measure.Flags().BoolVar(&before, "before", false, "insert the new row before --target instead of replacing it")

	measure.AddCommand(&cobra.Command{
		Use:   "cancel",
		Short: "Interrupt the running measurement",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, closer, err := loadClient(flags, cmd, bootstrap.ClientUI{})
			if err != nil {
				return err
			}
			defer closer()
			if err := client.MeasurementCLI.Cancel(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "measurement interrupted")
			return nil
		},
	})
	return measure
}

func newRowsCmd(flags *globalFlags) *cobra.Command {
	rows := &cobra.Command{Use: "rows", Short: "Stored measurement rows"}

	rows.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List rows in display order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, closer, err := loadClient(flags, cmd, bootstrap.ClientUI{})
			if err != nil {
				return err
			}
			defer closer()
			list, err := client.RowsCLI.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no rows")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tMEASURED\tF, Hz\tσF\tRk, Ohm\tσRk\tCOMMENT")
			for _, r := range list {
				_, _ = fmt.Fprintf(tw, "%d\t%s\t%.3f\t%.3f\t%.3f\t%.3f\t%s\n",
					r.ID, humanize.Time(r.Timestamp), r.Frequency, r.FrequencyDeviation, r.Resistance, r.ResistanceDeviation, r.Comment)
			}
			return tw.Flush()
		},
	})

	rows.AddCommand(&cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rowID, err := parseRowID(args[0])
			if err != nil {
				return err
			}
			client, closer, err := loadClient(flags, cmd, bootstrap.ClientUI{})
			if err != nil {
				return err
			}
			defer closer()
			if err := client.RowsCLI.Remove(cmd.Context(), rowID); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "row %d removed\n", rowID)
			return nil
		},
	})

	rows.AddCommand(&cobra.Command{
		Use:   "comment <id> [text...]",
		Short: "Replace a row comment; no text clears it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rowID, err := parseRowID(args[0])
			if err != nil {
				return err
			}
			client, closer, err := loadClient(flags, cmd, bootstrap.ClientUI{})
			if err != nil {
				return err
			}
			defer closer()
			return client.RowsCLI.Comment(cmd.Context(), rowID, strings.Join(args[1:], " "))
		},
	})

	var yes bool
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Delete every row and the batch metadata",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("reset deletes all stored data; pass --yes to confirm")
			}
			client, closer, err := loadClient(flags, cmd, bootstrap.ClientUI{})
			if err != nil {
				return err
			}
			defer closer()
			if err := client.RowsCLI.Reset(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "collector reset")
			return nil
		},
	}
	reset.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	rows.AddCommand(reset)
	return rows
}

func newBatchCmd(flags *globalFlags) *cobra.Command {
	batch := &cobra.Command{Use: "batch", Short: "Batch metadata"}

	batch.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print batch metadata",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, closer, err := loadClient(flags, cmd, bootstrap.ClientUI{})
			if err != nil {
				return err
			}
			defer closer()
			md, err := client.BatchCLI.Show(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "data type: %s\nroute: %s\ntemperature: %s\ndate: %s\ncomment: %s\n",
				md.DataType, md.RouteID, md.AmbientTemperatureRange, md.Date, md.Comment)
			return nil
		},
	})

	var input batchdto.Metadata
	set := &cobra.Command{
		Use:   "set",
		Short: "Update batch metadata; omitted flags keep their stored value",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, closer, err := loadClient(flags, cmd, bootstrap.ClientUI{})
			if err != nil {
				return err
			}
			defer closer()
			md, err := client.BatchCLI.Show(cmd.Context())
			if err != nil {
				return err
			}
			changed := cmd.Flags().Changed
			if changed("data-type") {
				md.DataType = input.DataType
			}
			if changed("route") {
				md.RouteID = input.RouteID
			}
			if changed("temperature") {
				md.AmbientTemperatureRange = input.AmbientTemperatureRange
			}
			if changed("date") {
				md.Date = input.Date
			}
			if changed("comment") {
				md.Comment = input.Comment
			}
			if err := client.BatchCLI.Set(cmd.Context(), md); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "batch metadata saved")
			return nil
		},
	}
	set.Flags().StringVar(&input.DataType, "data-type", "", "data type")
	set.Flags().StringVar(&input.RouteID, "route", "", "route id")
	set.Flags().StringVar(&input.AmbientTemperatureRange, "temperature", "", "ambient temperature range, e.g. 20..25")
	set.Flags().StringVar(&input.Date, "date", "", "batch date")
	set.Flags().StringVar(&input.Comment, "comment", "", "batch comment")
	batch.AddCommand(set)
	return batch
}

func newTUICmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the operator terminal UI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// The UI owns the terminal; logs go nowhere unless --log-file is set.
			cfg, logger, closer, err := setup(flags, io.Discard, false)
			if err != nil {
				return err
			}
			defer closer()
			return bootstrap.RunTUI(cmd.Context(), cfg, logger)
		},
	}
}

func parseRowID(raw string) (int64, error) {
	rowID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid row id %q", raw)
	}
	return rowID, nil
}
