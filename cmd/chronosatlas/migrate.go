package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	loadSql "github.com/siherrmann/chronosatlas/sql"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or revert schema migrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up [steps]",
			Short: "Apply pending migrations, all of them by default",
			Args:  cobra.MaximumNArgs(1),
			RunE:  runMigrateUp,
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Revert applied migrations, one by default",
			Args:  cobra.MaximumNArgs(1),
			RunE:  runMigrateDown,
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE:  runMigrateStatus,
		},
	)

	return cmd
}

func parseSteps(args []string, fallback int) (int, error) {
	if len(args) == 0 {
		return fallback, nil
	}
	steps, err := strconv.Atoi(args[0])
	if err != nil || steps < 0 {
		return 0, fmt.Errorf("steps must be a non-negative integer, got %q", args[0])
	}
	return steps, nil
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	steps, err := parseSteps(args, 0)
	if err != nil {
		return err
	}

	db, err := openDatabase(newLogger())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := loadSql.Init(db.Instance); err != nil {
		return fmt.Errorf("initializing extensions: %w", err)
	}

	applied, err := loadSql.MigrateUp(cmd.Context(), db.Instance, steps)
	if err != nil {
		return fmt.Errorf("migrating up: %w", err)
	}
	for _, migration := range applied {
		fmt.Printf("Applied %04d_%s\n", migration.Version, migration.Name)
	}

	// Stored functions depend on the table layout, so reload them once
	// the schema is complete
	if steps == 0 {
		if err := loadSql.LoadAllSql(db.Instance, true); err != nil {
			return fmt.Errorf("loading sql functions: %w", err)
		}
	}

	if len(applied) == 0 {
		fmt.Println("Schema is up to date")
	}
	return nil
}

func runMigrateDown(cmd *cobra.Command, args []string) error {
	steps, err := parseSteps(args, 1)
	if err != nil {
		return err
	}

	db, err := openDatabase(newLogger())
	if err != nil {
		return err
	}
	defer db.Close()

	reverted, err := loadSql.MigrateDown(cmd.Context(), db.Instance, steps)
	if err != nil {
		return fmt.Errorf("migrating down: %w", err)
	}
	for _, migration := range reverted {
		fmt.Printf("Reverted %04d_%s\n", migration.Version, migration.Name)
	}
	if len(reverted) == 0 {
		fmt.Println("Nothing to revert")
	}
	return nil
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	db, err := openDatabase(newLogger())
	if err != nil {
		return err
	}
	defer db.Close()

	current, err := loadSql.MigrationVersion(cmd.Context(), db.Instance)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	migrations, err := loadSql.Migrations()
	if err != nil {
		return err
	}

	pending := 0
	for _, migration := range migrations {
		if migration.Version > current {
			pending++
		}
	}

	fmt.Printf("Schema version %d, %d pending\n", current, pending)
	return nil
}
