// Package receipt merges a point-of-sale receipt from the command line.
package receipt

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
	flow  string
)

// Cmd represents the receipt command.
var Cmd = &cobra.Command{
	Use:   "receipt",
	Short: "Merge a receipt into its period ledger",
	Long: `Extracts the merchant, date and total from a receipt image,
classifies the transaction and appends it to the ledger of the month the
receipt falls in, reconstructing the running balance.`,
	RunE: receiptFunc,
}

func init() {
	Cmd.Flags().StringVarP(&input, "input", "i", "", "Receipt image")
	Cmd.Flags().StringVarP(&flow, "type", "t", "paid", "Flow direction: paid or received")
	_ = Cmd.MarkFlagRequired("input")
}

func receiptFunc(cmd *cobra.Command, args []string) error {
	app, err := common.Build(cmd.Context(), root.Cfg, root.Log)
	if err != nil {
		return err
	}
	defer app.Close()

	document, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("error reading receipt file: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(input))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	fields, err := app.DocAI.AnalyzeReceipt(cmd.Context(), document, contentType)
	if err != nil {
		return err
	}

	transaction, periodKey, err := app.Pipeline.MergeReceipt(cmd.Context(), fields, flow)
	if err != nil {
		return err
	}

	fmt.Printf("Merged %s (%s) into period ledger %s, closing balance %s\n",
		transaction.Narration, transaction.Category, periodKey,
		transaction.ClosingBalance.StringFixed(2))
	return nil
}
