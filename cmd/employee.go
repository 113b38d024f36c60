package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/postgres"
)

var employeeCmd = &cobra.Command{
	Use:   "employee",
	Short: "Manage the employee directory",
}

var employeeListCmd = &cobra.Command{
	Use:   "list [query]",
	Short: "List employees, optionally filtered by name",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runEmployeeList,
}

var employeeAddCmd = &cobra.Command{
	Use:   "add <first-name> <last-name>",
	Short: "Add an employee to the directory",
	Args:  cobra.ExactArgs(2),
	RunE:  runEmployeeAdd,
}

func init() {
	rootCmd.AddCommand(employeeCmd)
	employeeCmd.AddCommand(employeeListCmd)
	employeeCmd.AddCommand(employeeAddCmd)

	employeeListCmd.Flags().Bool("active", false, "Only list active employees")
	employeeAddCmd.Flags().String("position", "", "Job position")
	employeeAddCmd.Flags().Int("region", 0, "Region id")
}

func employeeRepo() (*postgres.EmployeeRepository, *postgres.Pool, error) {
	cfg := config.Load()
	if cfg.Database.URL == "" {
		return nil, nil, errors.New("DATABASE_URL environment variable is required")
	}
	pool, err := postgres.NewPool(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	return postgres.NewEmployeeRepository(pool), pool, nil
}

func runEmployeeList(cmd *cobra.Command, args []string) error {
	repo, pool, err := employeeRepo()
	if err != nil {
		return err
	}
	defer pool.Close()

	query := ""
	if len(args) == 1 {
		query = database.NormalizeName(database.RemoveDiacritics(args[0]))
	}

	employees, err := repo.SearchEmployees(context.Background(), query, mustGetBool(cmd, "active"))
	if err != nil {
		return fmt.Errorf("failed to list employees: %w", err)
	}
	for _, e := range employees {
		status := "active"
		if !e.Active {
			status = "inactive"
		}
		fmt.Printf("%s  %-30s %-20s %s\n", e.Code, e.FullName(), e.Position, status)
	}
	fmt.Printf("Total: %d\n", len(employees))
	return nil
}

func runEmployeeAdd(cmd *cobra.Command, args []string) error {
	repo, pool, err := employeeRepo()
	if err != nil {
		return err
	}
	defer pool.Close()

	employee := database.Employee{
		FirstName: args[0],
		LastName:  args[1],
		Position:  mustGetString(cmd, "position"),
		Active:    true,
	}
	if region := mustGetInt(cmd, "region"); region > 0 {
		regionID := int64(region)
		employee.RegionID = &regionID
	}

	if err := repo.CreateEmployee(context.Background(), &employee); err != nil {
		return fmt.Errorf("failed to create employee: %w", err)
	}
	fmt.Printf("Created %s (%s)\n", employee.FullName(), employee.Code)
	return nil
}
