package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/siherrmann/chronosatlas"
	"github.com/siherrmann/chronosatlas/api/graphql"
	"github.com/siherrmann/chronosatlas/api/rest"
	"github.com/siherrmann/chronosatlas/helper"
)

const figuresCSV = `name,birth_year,death_year,normalized_birth_year,normalized_death_year
Isaac Newton,1643,1727,1643,1727
Gottfried Wilhelm Leibniz,1646,1716,1646,1716
Emmy Noether,1882,1935,1882,1935
Marie Curie,1867,1934,1867,1934
`

const lineageQuery = `query Lineage($figure: String!) {
  lineage(figure: $figure, direction: "influencers", depth: 2) {
    distance
    figure { name normalizedBirthYear normalizedDeathYear }
  }
}`

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

	if _, err := atlas.Seed(ctx, nil, false); err != nil {
		log.Fatalf("Failed to seed: %v", err)
	}

	// Marie Curie is already seeded, so her row is skipped
	report, err := atlas.ImportCSV(ctx, strings.NewReader(figuresCSV))
	if err != nil {
		log.Fatalf("Failed to import csv: %v", err)
	}
	fmt.Printf("Imported %d of %d rows, skipped %d\n", report.Inserted, report.Rows, report.Skipped)

	// Serve both APIs the same way the serve command does
	gin.SetMode(gin.ReleaseMode)
	router, err := rest.NewRouter(atlas, &helper.ServerConfiguration{
		SecretKey:    "example-secret",
		AllowedHosts: []string{"127.0.0.1"},
	}, nil)
	if err != nil {
		log.Fatalf("Failed to build router: %v", err)
	}
	graphqlServer, err := graphql.NewServer(atlas, nil)
	if err != nil {
		log.Fatalf("Failed to build graphql server: %v", err)
	}
	router.POST("/graphql", gin.WrapH(graphqlServer))

	server := httptest.NewServer(router)
	defer server.Close()

	fmt.Println("\nGET /api/v1/figures?minYear=1700&maxYear=1720&orderBy=name")
	body := get(server.URL + "/api/v1/figures?minYear=1700&maxYear=1720&orderBy=name")
	fmt.Println(indent(body))

	fmt.Println("\nPOST /graphql lineage(figure: \"albert-einstein\")")
	payload, err := json.Marshal(graphql.Request{
		Query:     lineageQuery,
		Variables: map[string]interface{}{"figure": "albert-einstein"},
	})
	if err != nil {
		log.Fatalf("Failed to encode request: %v", err)
	}
	resp, err := http.Post(server.URL+"/graphql", "application/json", bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("Failed to query graphql: %v", err)
	}
	defer resp.Body.Close()
	fmt.Println(indent(readAll(resp.Body)))
}

func get(url string) []byte {
	resp, err := http.Get(url)
	if err != nil {
		log.Fatalf("Failed to get %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Unexpected status %d from %s", resp.StatusCode, url)
	}
	return readAll(resp.Body)
}

func readAll(r io.Reader) []byte {
	body, err := io.ReadAll(r)
	if err != nil {
		log.Fatalf("Failed to read body: %v", err)
	}
	return body
}

func indent(body []byte) string {
	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		return string(body)
	}
	return out.String()
}
