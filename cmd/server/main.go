package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/magfest/uber/internal/config"
	"github.com/magfest/uber/internal/db"
	"github.com/magfest/uber/internal/logging"
	"github.com/magfest/uber/internal/metrics"
	"github.com/magfest/uber/internal/services"
	"github.com/magfest/uber/internal/web"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("exiting", "error", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "uber",
		Short:         "Convention registration server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			config.Set(cfg)
			logging.Setup(cfg.Log)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error { return serve(cmd.Context()) },
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server (default)",
			RunE:  func(cmd *cobra.Command, _ []string) error { return serve(cmd.Context()) },
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Connect to the database and bring its schema up to date",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return db.Init(cmd.Context(), config.Get().Database)
			},
		},
		&cobra.Command{
			Use:   "insert-test-admin",
			Short: "Create the test admin account when no admin account exists",
			RunE:  insertTestAdmin,
		},
		&cobra.Command{
			Use:   "reset-password EMAIL",
			Short: "Issue a one-time password for an admin account",
			Args:  cobra.ExactArgs(1),
			RunE:  resetPassword,
		},
	)
	return root
}

func serve(ctx context.Context) error {
	cfg := config.Get()
	if err := db.Init(ctx, cfg.Database); err != nil {
		return err
	}
	metrics.WatchDatabase(ctx, 5*time.Second, db.Ping)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      web.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	errc := make(chan error, 1)
	go func() {
		slog.Info("uber listening", "addr", cfg.Server.Addr, "env", cfg.Env)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func insertTestAdmin(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := db.Init(ctx, config.Get().Database); err != nil {
		return err
	}
	var inserted bool
	err := db.Do(db.ContextWithWho(ctx, "server"), func(s *db.Session) error {
		var err error
		inserted, err = services.InsertTestAdminAccount(s)
		return err
	})
	if err != nil {
		return err
	}
	if inserted {
		fmt.Fprintf(cmd.OutOrStdout(), "created %s / %s\n", services.TestAdminEmail, services.TestAdminPassword)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "an admin account already exists")
	}
	return nil
}

func resetPassword(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := db.Init(ctx, config.Get().Database); err != nil {
		return err
	}
	var password string
	err := db.Do(db.ContextWithWho(ctx, "server"), func(s *db.Session) error {
		var err error
		password, err = services.IssuePasswordReset(s, args[0])
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "one-time password for %s: %s\n", args[0], password)
	return nil
}
