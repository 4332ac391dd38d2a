package main

import (
	"os"

	"finsight/backend/cmd/receipt"
	"finsight/backend/cmd/report"
	"finsight/backend/cmd/root"
	"finsight/backend/cmd/serve"
	"finsight/backend/cmd/statement"
)

func init() {
	root.Init()
	root.Cmd.AddCommand(serve.Cmd)
	root.Cmd.AddCommand(statement.Cmd)
	root.Cmd.AddCommand(receipt.Cmd)
	root.Cmd.AddCommand(report.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
