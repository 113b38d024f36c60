package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database/postgres"
)

var recountCmd = &cobra.Command{
	Use:   "recount",
	Short: "Recount region presence counters",
	Long: `Runs a full recount of the denormalized region counters for a given
day. The counters are a cache over the attendance records; this command
rebuilds them from scratch, e.g. after manual database edits.`,
	RunE: runRecount,
}

func init() {
	rootCmd.AddCommand(recountCmd)

	recountCmd.Flags().String("day", "", "Day to recount (YYYY-MM-DD, default today)")
	recountCmd.Flags().Bool("all", false, "Include inactive regions")
}

func runRecount(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	day := time.Now().UTC()
	if raw := mustGetString(cmd, "day"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			return fmt.Errorf("invalid --day value %q: %w", raw, err)
		}
		day = parsed
	}

	pool, err := postgres.NewPool(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pool.Close()

	ctx := context.Background()
	regionRepo := postgres.NewRegionRepository(pool)

	activeOnly := !mustGetBool(cmd, "all")
	regions, err := regionRepo.ListRegions(ctx, activeOnly)
	if err != nil {
		return fmt.Errorf("failed to list regions: %w", err)
	}
	if len(regions) == 0 {
		fmt.Println("No regions to recount")
		return nil
	}

	bar := progressbar.Default(int64(len(regions)), "recounting regions")
	for _, region := range regions {
		if err := regionRepo.RecountRegion(ctx, region.ID, day); err != nil {
			return fmt.Errorf("failed to recount region %q: %w", region.Name, err)
		}
		_ = bar.Add(1)
	}

	fmt.Printf("Recounted %d regions for %s\n", len(regions), day.Format("2006-01-02"))
	return nil
}
