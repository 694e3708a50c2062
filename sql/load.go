package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed fields.sql
var fieldsSQL string

//go:embed figures.sql
var figuresSQL string

//go:embed events.sql
var eventsSQL string

//go:embed influences.sql
var influencesSQL string

// Function lists for verification
var FieldsFunctions = []string{
	"insert_field",
	"get_or_create_field",
	"select_field",
	"select_field_by_slug",
	"select_all_fields",
	"delete_all_fields",
	"count_fields",
}

var FiguresFunctions = []string{
	"insert_figure",
	"insert_figure_ignore_conflict",
	"upsert_figure_by_slug",
	"select_figure",
	"select_figure_by_slug",
	"select_figure_by_external_id",
	"update_figure",
	"delete_figure",
	"delete_all_figures",
	"count_figures",
	"set_figure_fields",
	"select_fields_by_figures",
}

var EventsFunctions = []string{
	"insert_timeline_event",
	"get_or_create_timeline_event",
	"select_timeline_event",
	"update_timeline_event",
	"delete_timeline_event",
	"delete_all_timeline_events",
	"count_timeline_events",
}

var InfluencesFunctions = []string{
	"insert_influence",
	"get_or_create_influence",
	"select_influence",
	"update_influence",
	"delete_influence",
	"delete_all_influences",
	"count_influences",
	"select_influence_neighbors",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadFieldsSql loads field-related SQL functions
func LoadFieldsSql(db *sql.DB, force bool) error {
	return loadFunctions(db, "fields", fieldsSQL, FieldsFunctions, force)
}

// LoadFiguresSql loads figure-related SQL functions
func LoadFiguresSql(db *sql.DB, force bool) error {
	return loadFunctions(db, "figures", figuresSQL, FiguresFunctions, force)
}

// LoadEventsSql loads timeline event SQL functions
func LoadEventsSql(db *sql.DB, force bool) error {
	return loadFunctions(db, "timeline events", eventsSQL, EventsFunctions, force)
}

// LoadInfluencesSql loads influence-related SQL functions
func LoadInfluencesSql(db *sql.DB, force bool) error {
	return loadFunctions(db, "influences", influencesSQL, InfluencesFunctions, force)
}

// LoadAllSql loads all SQL functions. The tables must exist, so migrations
// have to run first.
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadFieldsSql(db, force); err != nil {
		return err
	}

	if err := LoadFiguresSql(db, force); err != nil {
		return err
	}

	if err := LoadEventsSql(db, force); err != nil {
		return err
	}

	if err := LoadInfluencesSql(db, force); err != nil {
		return err
	}

	return nil
}

func loadFunctions(db *sql.DB, name string, script string, functions []string, force bool) error {
	if !force {
		exist, err := checkFunctions(db, functions)
		if err != nil {
			return fmt.Errorf("error checking existing %s functions: %w", name, err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(script)
	if err != nil {
		return fmt.Errorf("error executing %s SQL: %w", name, err)
	}

	exist, err := checkFunctions(db, functions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Printf("SQL %s functions loaded successfully", name)
	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
