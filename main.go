package main

import (
	"log"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "filingflow",
		Short: "SEC filings RAG ingestion pipeline",
		Long:  "Chunks SEC filing sentences into overlapping windows, embeds them and indexes the vectors in Qdrant.",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "configs.yaml", "path to the YAML config file")

	root.AddCommand(runCmd(), searchCmd(), reportCmd())

	if err := root.Execute(); err != nil {
		log.Fatalf("❌ %v", err)
	}
}
