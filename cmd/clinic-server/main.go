package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinicbook/clinicbook/internal/config"
	"github.com/clinicbook/clinicbook/internal/domain/booking"
	"github.com/clinicbook/clinicbook/internal/domain/clinic"
	"github.com/clinicbook/clinicbook/internal/domain/directory"
	"github.com/clinicbook/clinicbook/internal/domain/notification"
	"github.com/clinicbook/clinicbook/internal/platform/db"
	"github.com/clinicbook/clinicbook/internal/platform/identity"
	"github.com/clinicbook/clinicbook/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Clinic appointment booking API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the booking API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory (defaults to MIGRATIONS_DIR)")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory (defaults to MIGRATIONS_DIR)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert demo data for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			doctorID := uuid.New()
			patientID := uuid.New()
			clinicID := uuid.New()

			_, err = pool.Exec(ctx, `
				INSERT INTO users (id, email, full_name, role, specialty, license)
				VALUES
					($1, 'laura.fernandez@example.com', 'Laura Fernández', 'doctor', 'Cardiología', 'MED-10001'),
					($2, 'mario.lopez@example.com', 'Mario López', 'patient', NULL, NULL)
				ON CONFLICT (email) DO NOTHING`, doctorID, patientID)
			if err != nil {
				return fmt.Errorf("seeding users: %w", err)
			}

			// 540/1020 = 09:00-17:00, Monday through Friday.
			_, err = pool.Exec(ctx, `
				INSERT INTO clinics (id, name, address, phone, doctor_id, open_minutes, close_minutes, weekdays)
				SELECT $1, 'Clínica Central', 'Av. Reforma 123', '555-0100', u.id, 540, 1020, '{1,2,3,4,5}'
				FROM users u
				WHERE u.email = 'laura.fernandez@example.com'
				ON CONFLICT DO NOTHING`, clinicID)
			if err != nil {
				return fmt.Errorf("seeding clinic: %w", err)
			}

			_, err = pool.Exec(ctx, `
				INSERT INTO weekly_schedules (id, doctor_id, clinic_id, weekday, open_minutes, close_minutes)
				SELECT gen_random_uuid(), c.doctor_id, c.id, d, c.open_minutes, c.close_minutes
				FROM clinics c, unnest(c.weekdays) AS d
				WHERE c.name = 'Clínica Central' AND c.doctor_id IS NOT NULL
				ON CONFLICT (doctor_id, weekday) DO NOTHING`)
			if err != nil {
				return fmt.Errorf("seeding schedules: %w", err)
			}

			fmt.Println("Seed data inserted.")
			return nil
		},
	}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", identity.UserIDHeader},
	}))
	e.Use(middleware.RequestTimeout(30 * time.Second))

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// API group: every route under it requires an identified caller.
	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(identity.Middleware(cfg.AuthMode, cfg.JWTSecret))
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// -- Register Domain Handlers --

	// Directory domain
	userRepo := directory.NewUserRepoPG(pool)
	licenseRepo := directory.NewLicenseRepoPG(pool)
	dirSvc := directory.NewService(userRepo, licenseRepo)
	dirHandler := directory.NewHandler(dirSvc)
	dirHandler.RegisterRoutes(apiV1)

	// Clinic domain
	clinicRepo := clinic.NewClinicRepoPG(pool)
	scheduleRepo := clinic.NewScheduleRepoPG(pool)
	clinicSvc := clinic.NewService(pool, clinicRepo, scheduleRepo, dirSvc)
	clinicHandler := clinic.NewHandler(clinicSvc)
	clinicHandler.RegisterRoutes(apiV1)

	// Notification domain
	notifRepo := notification.NewRepoPG(pool)
	notifSvc := notification.NewService(notifRepo)
	notifHandler := notification.NewHandler(notifSvc)
	notifHandler.RegisterRoutes(apiV1)

	// Booking domain
	apptRepo := booking.NewAppointmentRepoPG(pool)
	bookingSvc := booking.NewService(pool, apptRepo, dirSvc, clinicSvc, notifSvc, logger, booking.Config{
		SlotEvery: time.Duration(cfg.SlotMinutes) * time.Minute,
		MaxActive: cfg.MaxActiveAppointments,
	})
	bookingHandler := booking.NewHandler(bookingSvc)
	bookingHandler.RegisterRoutes(apiV1)

	// Daily reminder job
	if cfg.ReminderCron != "" {
		reminder := notification.NewReminder(notifSvc, apptRepo, cfg.ReminderCron, logger)
		if err := reminder.Start(); err != nil {
			logger.Fatal().Err(err).Str("spec", cfg.ReminderCron).Msg("failed to start reminder job")
		}
		defer reminder.Stop()
		logger.Info().Str("spec", cfg.ReminderCron).Msg("reminder job scheduled")
	}

	// Start server
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}
