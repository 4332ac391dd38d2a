// Package tables turns sparse, cell-addressed extraction output into
// ordered transaction rows. Layout-analysis services report tables as
// individual cells with row/column coordinates; this package
// materializes them into dense grids, resolves the column layout, and
// filters out non-transaction rows.
package tables

import (
	"strings"

	"finsight/backend/internal/logging"
	"finsight/backend/internal/models"
)

// Normalizer converts extracted tables into transaction rows.
type Normalizer struct {
	logger logging.Logger
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(logger logging.Logger) *Normalizer {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Normalizer{logger: logger}
}

// Rows materializes every table into a dense grid, resolves each
// table's column schema, and returns the retained transaction rows in
// source order. Rows from consecutive tables are concatenated, so a
// statement whose transactions span several page tables yields one
// continuous sequence.
func (n *Normalizer) Rows(tables []models.Table) ([]models.StatementRow, error) {
	var rows []models.StatementRow

	for i, table := range tables {
		grid := materialize(table)
		if len(grid) == 0 {
			continue
		}

		schema, fromHeader := DetectSchema(grid[0])
		if fromHeader {
			grid = grid[1:]
		}

		kept := 0
		for _, row := range grid {
			if !isTransactionRow(row, schema) {
				continue
			}
			rows = append(rows, rowFromGrid(row, schema))
			kept++
		}

		n.logger.WithFields(
			logging.Field{Key: "table", Value: i},
			logging.Field{Key: "rows", Value: len(grid)},
			logging.Field{Key: "kept", Value: kept},
			logging.Field{Key: "header", Value: fromHeader},
		).Debug("Normalized statement table")
	}

	return rows, nil
}

// materialize builds a dense RowCount x ColumnCount grid from the
// table's sparse cells. Cells outside the declared bounds are dropped;
// when two cells address the same position the later one wins.
func materialize(table models.Table) [][]string {
	if table.RowCount <= 0 || table.ColumnCount <= 0 {
		return nil
	}

	grid := make([][]string, table.RowCount)
	for i := range grid {
		grid[i] = make([]string, table.ColumnCount)
	}

	for _, cell := range table.Cells {
		if cell.RowIndex < 0 || cell.RowIndex >= table.RowCount {
			continue
		}
		if cell.ColumnIndex < 0 || cell.ColumnIndex >= table.ColumnCount {
			continue
		}
		grid[cell.RowIndex][cell.ColumnIndex] = cell.Content
	}

	return grid
}

// isTransactionRow applies the retention rule: a row is a transaction
// only when it is wide enough for the schema and at least one of its
// amount cells is populated. Headers, section titles and continuation
// fragments fail one of the two.
func isTransactionRow(row []string, schema Schema) bool {
	if len(row) < schema.MinColumns {
		return false
	}
	return strings.TrimSpace(cellAt(row, schema.Withdrawal)) != "" ||
		strings.TrimSpace(cellAt(row, schema.Deposit)) != ""
}

func rowFromGrid(row []string, schema Schema) models.StatementRow {
	return models.StatementRow{
		Date:       strings.TrimSpace(cellAt(row, schema.Date)),
		Narration:  strings.TrimSpace(cellAt(row, schema.Narration)),
		Withdrawal: strings.TrimSpace(cellAt(row, schema.Withdrawal)),
		Deposit:    strings.TrimSpace(cellAt(row, schema.Deposit)),
		Balance:    strings.TrimSpace(cellAt(row, schema.Balance)),
	}
}

func cellAt(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return row[index]
}
