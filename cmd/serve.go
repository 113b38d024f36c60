package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mariadb"
	"github.com/kozaktomas/face-attendance/internal/database/postgres"
	"github.com/kozaktomas/face-attendance/internal/imagestore"
	"github.com/kozaktomas/face-attendance/internal/ingest"
	"github.com/kozaktomas/face-attendance/internal/quarantine"
	"github.com/kozaktomas/face-attendance/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attendance engine",
	Long: `Start the attendance engine HTTP server.
The server accepts recognition events from edge cameras, serves the
attendance and quarantine APIs, and runs the region counter worker.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

// resolveDirectory picks the employee/camera read backend. Deployments
// with an external HR database read the directory from MariaDB; writes
// always go to the primary store.
func resolveDirectory(cfg *config.Config, primary database.DirectoryReader) (database.DirectoryReader, func(), error) {
	if cfg.Directory.URL == "" {
		return primary, func() {}, nil
	}
	pool, err := mariadb.NewPool(cfg.Directory.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to HR directory: %w", err)
	}
	fmt.Println("Using external MariaDB HR directory")
	return mariadb.NewDirectory(pool), func() { pool.Close() }, nil
}

// primaryDirectory serves the directory interfaces from the primary store.
type primaryDirectory struct {
	*postgres.EmployeeRepository
	*postgres.CameraRepository
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	fmt.Printf("Connecting to PostgreSQL database...\n")
	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	employeeRepo := postgres.NewEmployeeRepository(pool)
	cameraRepo := postgres.NewCameraRepository(pool)
	regionRepo := postgres.NewRegionRepository(pool)
	attendanceRepo := postgres.NewAttendanceRepository(pool)
	quarantineRepo := postgres.NewQuarantineRepository(pool)
	referenceRepo := postgres.NewReferenceImageRepository(pool)
	captureRepo := postgres.NewCaptureRepository(pool)

	directory, closeDirectory, err := resolveDirectory(cfg, primaryDirectory{employeeRepo, cameraRepo})
	if err != nil {
		return err
	}
	defer closeDirectory()

	images, err := imagestore.New(cfg.Storage.Dir, cfg.Storage.ThumbSize)
	if err != nil {
		return fmt.Errorf("failed to initialize image storage: %w", err)
	}

	ctx := context.Background()

	fmt.Println("Building face candidate index...")
	index, err := database.BuildCandidateIndex(ctx, referenceRepo)
	if err != nil {
		return fmt.Errorf("failed to build candidate index: %w", err)
	}
	fmt.Printf("Candidate index ready with %d reference images\n", index.Count())

	policy, err := attendance.NewPolicy(cfg.Schedule.Workday)
	if err != nil {
		return fmt.Errorf("invalid workday schedule: %w", err)
	}

	recounter := attendance.NewRecounter(regionRepo, 64)
	recounter.Start(ctx)
	defer recounter.Stop()

	reconciler := attendance.NewReconciler(attendanceRepo, policy, recounter)
	quarantineSvc := quarantine.NewService(quarantineRepo, directory, index)
	gateway := ingest.NewGateway(directory, reconciler, quarantineSvc, captureRepo, images)

	port, host := resolveServeHostPort(cmd)
	server := web.NewServer(cfg, port, host, web.Dependencies{
		Gateway:         gateway,
		Quarantine:      quarantineSvc,
		QuarantineStore: quarantineRepo,
		Recounter:       recounter,
		Directory:       directory,
		Employees:       employeeRepo,
		Cameras:         cameraRepo,
		Regions:         regionRepo,
		Attendance:      attendanceRepo,
		Captures:        captureRepo,
		ReferenceImages: referenceRepo,
		Images:          images,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting attendance engine on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
