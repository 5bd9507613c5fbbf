package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/expanders360/vendormatch/internal/adapters/repository"
	app "github.com/expanders360/vendormatch/internal/app"
	"github.com/expanders360/vendormatch/internal/config"
	"github.com/expanders360/vendormatch/pkg/logger"
	"github.com/spf13/cobra"
)

// stopTimeout bounds service shutdown for the one-shot commands.
const stopTimeout = 30 * time.Second

type cliKey struct{}

// cli carries what PersistentPreRunE prepared for the subcommands.
type cli struct {
	cfg    *config.Config
	logger logger.Logger
}

func fromCmd(cmd *cobra.Command) *cli {
	c, _ := cmd.Context().Value(cliKey{}).(*cli)
	return c
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "vendormatch",
		Short: "Match expansion projects with service vendors",
		Long: `vendormatch serves the vendor matching API: clients, projects and vendors,
scored project-vendor matches, analytics, a nightly match refresh and a
six-hourly SLA check.

Configuration is read from defaults, an optional YAML file and
VENDORMATCH_* environment variables, in that order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cfgFile != "" {
				if err := os.Setenv(config.EnvConfig, cfgFile); err != nil {
					return fmt.Errorf("set config path: %w", err)
				}
			}
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}
			l := logger.Get()
			// Apply configured log level (fallback to info on invalid input).
			if err := logger.SetLevelString(cfg.LogLevel); err != nil {
				l.Warn(cmd.Context(), "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
				_ = logger.SetLevelString("info")
			}
			cmd.SetContext(context.WithValue(cmd.Context(), cliKey{}, &cli{cfg: cfg, logger: l}))
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (overrides "+config.EnvConfig+")")

	root.AddCommand(serveCmd(), migrateCmd(), rebuildCmd(), scanSLACmd())
	return root
}

// serviceOptions maps the loaded configuration onto service options.
func serviceOptions(cfg *config.Config, l logger.Logger, scheduled bool) []app.Option {
	return []app.Option{
		app.WithLogger(l.Named("service")),
		app.WithDBPath(cfg.DBPath),
		app.WithStoreTimeout(cfg.StoreTimeout()),
		app.WithNotifyQueueSize(cfg.NotifyQueueSize),
		app.WithNotifyWorkers(cfg.NotifyWorkers),
		app.WithNotifyAddresses(cfg.NotifyAdminEmail, cfg.NotifyFromEmail),
		app.WithNATS(cfg.NATSURL, cfg.NATSSubjectPrefix),
		app.WithScheduler(scheduled && cfg.SchedulerEnabled, cfg.DailyRefreshSchedule, cfg.SLAScanSchedule, cfg.Location()),
		app.WithSLALookback(cfg.SLALookback()),
		app.WithAnalyticsWindow(cfg.AnalyticsWindow()),
	}
}

// withService starts a service without its scheduler, runs fn and stops it,
// letting queued notifications drain.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *app.Service) error) (err error) {
	c := fromCmd(cmd)
	ctx := cmd.Context()

	svc := app.New(serviceOptions(c.cfg, c.logger, false)...)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
		defer cancel()
		if stopErr := svc.Stop(stopCtx); stopErr != nil && err == nil {
			err = fmt.Errorf("stop service: %w", stopErr)
		}
	}()
	return fn(ctx, svc)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, notification workers and scheduled jobs (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the SQLite schema and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := fromCmd(cmd)
			ctx := cmd.Context()

			store, err := repository.NewSQLiteStore(c.cfg.DBPath, repository.WithLogger(c.logger.Named("store")))
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()

			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			version, err := store.SchemaVersion(ctx)
			if err != nil {
				return fmt.Errorf("schema version: %w", err)
			}
			c.logger.Info(ctx, "schema up to date",
				logger.String("path", c.cfg.DBPath),
				logger.Int("version", version),
			)
			return nil
		},
	}
}

func rebuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild <project-id>",
		Short: "Recompute the matches of one project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid project id %q", args[0])
			}
			return withService(cmd, func(ctx context.Context, svc *app.Service) error {
				matches, err := svc.RebuildMatches(ctx, id)
				for _, m := range matches {
					fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", m.VendorID, m.Vendor.Name, m.Score.StringFixed(2))
				}
				if err != nil {
					return fmt.Errorf("rebuild project %d: %w", id, err)
				}
				fromCmd(cmd).logger.Info(ctx, "matches rebuilt",
					logger.Int64("project_id", id),
					logger.Int("matches", len(matches)),
				)
				return nil
			})
		},
	}
}

func scanSLACmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan-sla",
		Short: "Run the SLA check once and send warnings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(ctx context.Context, svc *app.Service) error {
				report, err := svc.ScanSLA(ctx)
				if err != nil {
					return fmt.Errorf("scan sla: %w", err)
				}
				for _, b := range report.Breaches {
					fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%d\n", b.Vendor.ID, b.Vendor.Name, b.ExpiredMatches)
				}
				fromCmd(cmd).logger.Info(ctx, "sla scan finished",
					logger.Int("vendors", report.Vendors),
					logger.Int("recent_matches", report.RecentMatches),
					logger.Int("warnings", len(report.Breaches)),
				)
				return nil
			})
		},
	}
}
