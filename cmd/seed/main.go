package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/expense-tracker/cmd/api"
	"github.com/FACorreiaa/expense-tracker/internal/domain/demo"
	expenserepo "github.com/FACorreiaa/expense-tracker/internal/domain/expense/repository"
	userrepo "github.com/FACorreiaa/expense-tracker/internal/domain/user/repository"
	"github.com/FACorreiaa/expense-tracker/pkg/clock"
	"github.com/FACorreiaa/expense-tracker/pkg/config"
	"github.com/FACorreiaa/expense-tracker/pkg/db"
)

func main() {
	var seed int64

	rootCmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill empty accounts with demo expenses and recurring charges",
		Args:  cobra.NoArgs,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd.Context(), seed)
		},
	}
	rootCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed; the same seed produces the same data")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func runSeed(ctx context.Context, seed int64) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := api.NewLogger(os.Stdout, cfg.Observability)

	database, err := db.New(ctx, db.Config{DSN: cfg.Database.DSN(), MaxConns: 4}, logger)
	if err != nil {
		return err
	}
	defer database.Close()
	if err := database.RunMigrations(ctx); err != nil {
		return err
	}

	seeder := demo.NewSeeder(
		userrepo.NewPostgresRepository(database.Pool),
		expenserepo.NewPostgresRepository(database.Pool),
		seed, clock.System{}, logger,
	)
	res, err := seeder.Seed(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("seeded %d users: %d expenses, %d recurring templates\n", res.UsersSeeded, res.Expenses, res.Templates)
	return nil
}
