// Package api wires the expense tracker's repositories, services, handlers
// and background jobs into one process.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/FACorreiaa/expense-tracker/internal/domain/admin"
	adminhandler "github.com/FACorreiaa/expense-tracker/internal/domain/admin/handler"
	authhandler "github.com/FACorreiaa/expense-tracker/internal/domain/auth/handler"
	authservice "github.com/FACorreiaa/expense-tracker/internal/domain/auth/service"
	"github.com/FACorreiaa/expense-tracker/internal/domain/categorization"
	expensehandler "github.com/FACorreiaa/expense-tracker/internal/domain/expense/handler"
	expenserepo "github.com/FACorreiaa/expense-tracker/internal/domain/expense/repository"
	expenseservice "github.com/FACorreiaa/expense-tracker/internal/domain/expense/service"
	"github.com/FACorreiaa/expense-tracker/internal/domain/export"
	"github.com/FACorreiaa/expense-tracker/internal/domain/import/parser"
	importservice "github.com/FACorreiaa/expense-tracker/internal/domain/import/service"
	"github.com/FACorreiaa/expense-tracker/internal/domain/reminders"
	reportshandler "github.com/FACorreiaa/expense-tracker/internal/domain/reports/handler"
	reportsservice "github.com/FACorreiaa/expense-tracker/internal/domain/reports/service"
	userhandler "github.com/FACorreiaa/expense-tracker/internal/domain/user/handler"
	userrepo "github.com/FACorreiaa/expense-tracker/internal/domain/user/repository"
	userservice "github.com/FACorreiaa/expense-tracker/internal/domain/user/service"
	"github.com/FACorreiaa/expense-tracker/pkg/clock"
	"github.com/FACorreiaa/expense-tracker/pkg/config"
	"github.com/FACorreiaa/expense-tracker/pkg/cron"
	"github.com/FACorreiaa/expense-tracker/pkg/db"
	"github.com/FACorreiaa/expense-tracker/pkg/interceptors"
)

// ReminderJob is the cron job name of the reminder digest.
const ReminderJob = "recurring-reminders"

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger
	Clock  clock.Clock

	// Repositories
	UserRepo    *userrepo.PostgresRepository
	ExpenseRepo *expenserepo.PostgresRepository

	// Services
	TokenManager    *authservice.TokenManager
	AuthService     *authservice.AuthService
	UserService     *userservice.Service
	Categorizer     *categorization.Categorizer
	ExpenseService  *expenseservice.Service
	ReportsService  *reportsservice.Service
	ImportService   *importservice.ImportService
	ExportService   *export.Service
	AdminService    *admin.Service
	ReminderService *reminders.Service
	Scheduler       *cron.Scheduler
	RateLimiter     *interceptors.RateLimiter
	Metrics         *interceptors.Metrics
	MetricsRegistry *prometheus.Registry

	// Handlers
	AuthHandler    *authhandler.AuthHandler
	UserHandler    *userhandler.UserHandler
	ExpenseHandler *expensehandler.ExpenseHandler
	ReportsHandler *reportshandler.ReportsHandler
	AdminHandler   *adminhandler.AdminHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
		Clock:  clock.System{},
	}

	if err := deps.initDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	deps.initRepositories()

	if err := deps.initServices(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase connects to the database and runs migrations
func (d *Dependencies) initDatabase(ctx context.Context) error {
	database, err := db.New(ctx, db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        int32(d.Config.Database.MaxConns),
		MinConns:        int32(d.Config.Database.MinConns),
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}
	d.DB = database

	if err := d.DB.RunMigrations(ctx); err != nil {
		d.DB.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

func (d *Dependencies) initRepositories() {
	d.UserRepo = userrepo.NewPostgresRepository(d.DB.Pool)
	d.ExpenseRepo = expenserepo.NewPostgresRepository(d.DB.Pool)

	d.Logger.Info("repositories initialized")
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() error {
	cfg := d.Config

	d.TokenManager = authservice.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTokenTTL)
	d.AuthService = authservice.NewAuthService(d.UserRepo, d.TokenManager, cfg.Auth.AdminEmail, d.Logger)
	d.UserService = userservice.NewService(d.UserRepo, d.Logger)

	d.Categorizer = categorization.NewDefaultCategorizer()
	d.ExpenseService = expenseservice.NewService(d.ExpenseRepo, d.Categorizer, d.Clock, d.Logger)
	d.ReportsService = reportsservice.NewService(d.ExpenseRepo, d.UserService, d.Clock, d.Logger)

	d.ImportService = importservice.NewImportService(d.ExpenseService, parser.DefaultConfig(), d.Logger)
	d.ExportService = export.NewService(d.ExpenseService, d.ReportsService)
	d.AdminService = admin.NewService(d.UserService, d.ExpenseService, d.Logger)

	sender := reminders.NewSender(cfg.Email.ResendAPIKey, cfg.Email.From, d.Logger)
	d.ReminderService = reminders.NewService(d.ExpenseRepo, d.UserRepo, sender, d.Clock,
		cfg.Reminders.HorizonDays, cfg.Ledger.Currency, d.Logger)

	d.Scheduler = cron.NewScheduler(d.Logger)
	if cfg.Reminders.Enabled {
		if err := d.Scheduler.Add(ReminderJob, cfg.Reminders.Schedule, d.runReminders); err != nil {
			return err
		}
	}

	d.RateLimiter = interceptors.NewRateLimiter(cfg.Server.RateLimitPerSecond, cfg.Server.RateLimitBurst)

	d.MetricsRegistry = prometheus.NewRegistry()
	d.MetricsRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	d.Metrics = interceptors.NewMetrics(d.MetricsRegistry)

	d.Logger.Info("services initialized")
	return nil
}

func (d *Dependencies) runReminders(ctx context.Context) error {
	report, err := d.ReminderService.Run(ctx)
	if err != nil {
		return err
	}
	d.Logger.InfoContext(ctx, "reminder digest finished",
		slog.Int("due", report.Due),
		slog.Int("sent", report.Sent),
		slog.Int("failed", report.Failed),
	)
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() {
	d.AuthHandler = authhandler.NewAuthHandler(d.AuthService, d.Logger)
	d.UserHandler = userhandler.NewUserHandler(d.UserService, d.Logger)
	d.ExpenseHandler = expensehandler.NewExpenseHandler(d.ExpenseService, d.Categorizer, d.ImportService,
		d.ExportService, d.Clock.Now, d.Logger)
	d.ReportsHandler = reportshandler.NewReportsHandler(d.ReportsService, d.Logger)
	d.AdminHandler = adminhandler.NewAdminHandler(d.AdminService, d.Logger)

	d.Logger.Info("handlers initialized")
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
