package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/siherrmann/chronosatlas/helper"
	"github.com/siherrmann/chronosatlas/model"
)

const (
	LifespanIndexName   = "figures_lifespan_gist_idx"
	IndexCheckMinYear   = 1800
	IndexCheckMaxYear   = 1900
	indexCheckTimeout   = 60 * time.Second
	disableSeqScan      = `SET LOCAL enable_seqscan = off`
	disableIndexScan    = `SET LOCAL enable_indexscan = off`
	disableBitmapScan   = `SET LOCAL enable_bitmapscan = off`
	disableIndexOnlyRun = `SET LOCAL enable_indexonlyscan = off`
)

// VerifyLifespanIndex runs EXPLAIN (ANALYZE, BUFFERS) on the 19th century
// overlap query and reports whether the plan uses the lifespan index.
// With forceIndex sequential scans are disabled for the check, so small
// tables still show whether the index is usable.
func (h *FiguresDBHandler) VerifyLifespanIndex(ctx context.Context, forceIndex bool) (*model.IndexReport, error) {
	ctx, cancel := context.WithTimeout(ctx, indexCheckTimeout)
	defer cancel()

	statement := strings.Replace(
		strings.Replace(lifespanOverlap, "?", fmt.Sprint(IndexCheckMinYear), 1),
		"?", fmt.Sprint(IndexCheckMaxYear), 1,
	)
	statement = fmt.Sprintf(`SELECT %s FROM figures WHERE %s ORDER BY figures.normalized_birth_year`, figureColumns, statement)

	report := &model.IndexReport{
		Index: LifespanIndexName,
		Query: statement,
	}

	err := h.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if forceIndex {
			_, err := tx.ExecContext(ctx, disableSeqScan)
			if err != nil {
				return helper.NewError("disable seqscan", err)
			}
		}

		plan, err := explain(ctx, tx, `EXPLAIN (ANALYZE, BUFFERS) `+statement)
		if err != nil {
			return err
		}

		report.Plan = plan
		return nil
	})
	if err != nil {
		return nil, err
	}

	report.UsesIndex = strings.Contains(report.Plan, LifespanIndexName)

	h.db.Logger.Info("Verified lifespan index", "index", LifespanIndexName, "uses_index", report.UsesIndex, "forced", forceIndex)

	return report, nil
}

// SelectFiguresOverlappingSeqScan answers the same question as
// SelectFiguresOverlapping with every index scan disabled, which makes it a
// reference result for the indexed query.
func (h *FiguresDBHandler) SelectFiguresOverlappingSeqScan(ctx context.Context, minYear int, maxYear int) ([]*model.Figure, error) {
	q, err := overlapQuery(minYear, maxYear)
	if err != nil {
		return nil, err
	}

	var figures []*model.Figure
	err = h.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, setting := range []string{disableIndexScan, disableBitmapScan, disableIndexOnlyRun} {
			_, err := tx.ExecContext(ctx, setting)
			if err != nil {
				return helper.NewError("disable index scan", err)
			}
		}

		var err error
		figures, err = h.WithTx(tx).selectMany(ctx, q)
		return err
	})
	if err != nil {
		return nil, err
	}

	return figures, nil
}

// SelectFiguresOverlappingIndexed runs the overlap query with sequential
// scans disabled, so even small tables are read through the lifespan index.
// It returns the rows together with the plan that produced them.
func (h *FiguresDBHandler) SelectFiguresOverlappingIndexed(ctx context.Context, minYear int, maxYear int) ([]*model.Figure, string, error) {
	q, err := overlapQuery(minYear, maxYear)
	if err != nil {
		return nil, "", err
	}

	statement, args, err := q.SQL()
	if err != nil {
		return nil, "", helper.NewError("build query", err)
	}

	var figures []*model.Figure
	var plan string
	err = h.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, disableSeqScan)
		if err != nil {
			return helper.NewError("disable seqscan", err)
		}

		plan, err = explain(ctx, tx, `EXPLAIN `+statement, args...)
		if err != nil {
			return err
		}

		figures, err = h.WithTx(tx).selectMany(ctx, q)
		return err
	})
	if err != nil {
		return nil, "", err
	}

	return figures, plan, nil
}

// explain runs an EXPLAIN statement and joins the plan lines.
func explain(ctx context.Context, tx *sql.Tx, statement string, args ...interface{}) (string, error) {
	rows, err := tx.QueryContext(ctx, statement, args...)
	if err != nil {
		return "", helper.TranslateStorageError(helper.NewError("explain", err))
	}
	defer rows.Close()

	lines := []string{}
	for rows.Next() {
		var line string
		err := rows.Scan(&line)
		if err != nil {
			return "", helper.NewError("scan", err)
		}
		lines = append(lines, line)
	}

	err = rows.Err()
	if err != nil {
		return "", helper.NewError("rows error", err)
	}

	return strings.Join(lines, "\n"), nil
}
