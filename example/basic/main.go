package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/siherrmann/chronosatlas"
	"github.com/siherrmann/chronosatlas/helper"
	"github.com/siherrmann/chronosatlas/model"
)

func main() {
	ctx := context.Background()

	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(ctx)

	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	atlas, err := chronosatlas.NewAtlas(dbConfig, chronosatlas.Options{
		SecretKey: "example-secret",
		Migrate:   true,
	})
	if err != nil {
		log.Fatalf("Failed to create atlas: %v", err)
	}
	defer atlas.Close()

	report, err := atlas.Seed(ctx, nil, false)
	if err != nil {
		log.Fatalf("Failed to seed: %v", err)
	}
	fmt.Printf("Seeded %d fields, %d figures, %d events, %d influences\n",
		report.Fields, report.Figures, report.Events, report.Influences)

	// Everyone alive at some point in the 19th century
	minYear, maxYear := 1800, 1900
	page, err := atlas.ListFigures(ctx, &model.FigureFilter{MinYear: &minYear, MaxYear: &maxYear}, model.PageRequest{})
	if err != nil {
		log.Fatalf("Failed to list figures: %v", err)
	}
	fmt.Printf("\nFigures alive between %d and %d:\n", minYear, maxYear)
	for _, figure := range page.Items {
		fmt.Printf("  %-20s %s\n", figure.Name, lifespan(figure))
	}

	// Walk the influence graph downstream from Plato
	entries, err := atlas.FigureLineage(ctx, "plato", model.LineageInfluenced, model.DefaultLineageDepth)
	if err != nil {
		log.Fatalf("Failed to load lineage: %v", err)
	}
	fmt.Println("\nInfluenced by Plato:")
	for _, entry := range entries {
		fmt.Printf("  %s%s\n", strings.Repeat("  ", entry.Distance-1), entry.Figure.Name)
	}

	// Paginate through timeline events two at a time
	fmt.Println("\nTimeline:")
	first := 2
	request := model.PageRequest{First: &first}
	for {
		events, err := atlas.ListTimelineEvents(ctx, &model.TimelineEventFilter{}, request)
		if err != nil {
			log.Fatalf("Failed to list timeline events: %v", err)
		}
		for _, event := range events.Items {
			fmt.Printf("  %6d  %s\n", event.Year, event.Title)
		}
		if !events.HasMore {
			break
		}
		request.After = events.EndCursor
	}
}

func lifespan(figure *model.Figure) string {
	if figure.NormalizedDeathYear == nil {
		return fmt.Sprintf("%d-", figure.NormalizedBirthYear)
	}
	return fmt.Sprintf("%d to %d", figure.NormalizedBirthYear, *figure.NormalizedDeathYear)
}
