package main

import (
	"testing"

	"github.com/siherrmann/chronosatlas/core/loader"
	"github.com/stretchr/testify/assert"
)

func TestImportCmdHelp(t *testing.T) {
	cmd := newImportCmd()

	t.Run("Lists every required column", func(t *testing.T) {
		for _, col := range loader.CSVColumns {
			assert.Contains(t, cmd.Long, col)
		}
		assert.Contains(t, cmd.Long, "All of these columns\nare required")
	})

	t.Run("Living figures are marked by the normalized death year", func(t *testing.T) {
		assert.Contains(t, cmd.Long, "An empty normalized_death_year marks a living figure")
		assert.NotContains(t, cmd.Long, "An empty death_year marks")
	})
}
