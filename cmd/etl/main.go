// The etl command runs individual data syncs and digest builds from the
// command line, without going through the job queue. It shares the exact
// sync code the workers run, so a manual invocation behaves the same as a
// scheduled one.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pharmintel/pharmintel/internal/config"
	"github.com/pharmintel/pharmintel/internal/database"
	"github.com/pharmintel/pharmintel/internal/lib/email"
	"github.com/pharmintel/pharmintel/internal/logger"
	"github.com/pharmintel/pharmintel/internal/repository"
	"github.com/pharmintel/pharmintel/internal/server"
	"github.com/pharmintel/pharmintel/internal/service"
)

const runTimeout = 45 * time.Minute

// app bundles the dependencies the subcommands share.
type app struct {
	server   *server.Server
	services *service.Services
	mailer   *email.Client
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, loggerService, err := logger.New(cfg)
	if err != nil {
		return nil, err
	}

	if err := database.Migrate(ctx, log, cfg); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	s, err := server.New(cfg, log, loggerService)
	if err != nil {
		return nil, err
	}

	repos := repository.NewRepositories(s)
	services := service.NewServices(s, repos)

	return &app{
		server:   s,
		services: services,
		mailer:   email.NewClient(cfg, log),
	}, nil
}

func (a *app) close(ctx context.Context) {
	if err := a.server.Shutdown(ctx); err != nil {
		a.server.Logger.Error().Err(err).Msg("cleanup finished with errors")
	}
}

func main() {
	root := &cobra.Command{
		Use:           "etl",
		Short:         "Run data syncs and digest builds directly",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(syncCmd())
	root.AddCommand(digestCmd())
	root.AddCommand(previewEmailCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "sync <source>",
		Short:     "Sync one data source, or all of them",
		ValidArgs: []string{"trials", "targets", "literature", "proteins", "structures", "safety", "quotes", "all"},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			return runSync(ctx, a, args[0])
		},
	}
}

func runSync(ctx context.Context, a *app, source string) error {
	syncer := a.services.Syncer

	syncs := map[string]func(context.Context) error{
		"trials": func(ctx context.Context) error {
			_, _, err := syncer.SyncTrials(ctx)
			return err
		},
		"targets":    syncer.SyncTargets,
		"literature": syncer.SyncPapers,
		"proteins":   syncer.SyncProteins,
		"structures": syncer.SyncStructures,
		"safety":     syncer.SyncSafety,
		"quotes":     syncer.SyncQuotes,
	}

	if source != "all" {
		return syncs[source](ctx)
	}

	// Targets before proteins and structures: those two enrich rows the
	// targets sync creates.
	order := []string{"trials", "targets", "proteins", "structures", "literature", "safety", "quotes"}
	for _, name := range order {
		if err := syncs[name](ctx); err != nil {
			return fmt.Errorf("sync %s: %w", name, err)
		}
	}
	return nil
}

func digestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Sync trials, record a change digest, and email watchers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			return runDigest(ctx, a)
		},
	}
}

func runDigest(ctx context.Context, a *app) error {
	log := a.server.Logger

	changes, names, err := a.services.Syncer.SyncTrials(ctx)
	if err != nil {
		return err
	}

	d, notify, err := a.services.Digest.Record(ctx, changes, names)
	if err != nil {
		return err
	}
	if d == nil {
		log.Info().Msg("Digest run found no changes")
		return nil
	}

	log.Info().
		Int64("digest_id", d.ID).
		Str("significance", d.Significance).
		Int("events", len(d.Events)).
		Msg("Digest recorded")

	if !notify {
		return nil
	}

	recipients, err := a.services.Digest.Recipients(ctx, d)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		log.Info().Int64("digest_id", d.ID).Msg("Digest has no recipients")
		return nil
	}

	return a.mailer.SendDigestEmail(recipients, d)
}

func previewEmailCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "preview-email <template>",
		Short:     "Render an email template with sample data to stdout",
		ValidArgs: []string{string(email.TemplateDigest)},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := email.Template(args[0])
			data, ok := email.PreviewData[name]
			if !ok {
				return fmt.Errorf("no preview data for template %q", name)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, _, err := logger.New(cfg)
			if err != nil {
				return err
			}

			body, err := email.NewClient(cfg, log).Render(name, data)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), body)
			return nil
		},
	}
}
