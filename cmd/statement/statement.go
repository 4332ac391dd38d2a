// Package statement ingests a bank-statement document from the command
// line.
package statement

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"finsight/backend/cmd/common"
	"finsight/backend/cmd/root"
)

var (
	input string
	month string
	year  string
)

// Cmd represents the statement command.
var Cmd = &cobra.Command{
	Use:   "statement",
	Short: "Process a bank-statement document into a period ledger",
	Long: `Sends the document through layout extraction, classifies every
transaction narration, and writes the classified period ledger.`,
	RunE: statementFunc,
}

func init() {
	Cmd.Flags().StringVarP(&input, "input", "i", "", "Statement document (PDF or image)")
	Cmd.Flags().StringVarP(&month, "month", "m", "", "Statement month (name or number)")
	Cmd.Flags().StringVarP(&year, "year", "y", "", "Statement year (four digits)")
	_ = Cmd.MarkFlagRequired("input")
	_ = Cmd.MarkFlagRequired("month")
	_ = Cmd.MarkFlagRequired("year")
}

func statementFunc(cmd *cobra.Command, args []string) error {
	app, err := common.Build(cmd.Context(), root.Cfg, root.Log)
	if err != nil {
		return err
	}
	defer app.Close()

	document, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("error reading statement file: %w", err)
	}

	tables, err := app.DocAI.AnalyzeLayout(cmd.Context(), document, contentTypeFor(input))
	if err != nil {
		return err
	}

	periodKey, count, err := app.Pipeline.ProcessStatement(cmd.Context(), tables, month, year)
	if err != nil {
		return err
	}

	fmt.Printf("Wrote %d transactions to period ledger %s\n", count, periodKey)
	return nil
}

func contentTypeFor(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
