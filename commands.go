package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"FilingFlow/app/configs"
	"FilingFlow/app/models"
	"FilingFlow/app/notify"
	"FilingFlow/app/pipeline"
	"FilingFlow/app/storage"
	"FilingFlow/app/vectors"
)

func buildPipeline() (*pipeline.Pipeline, *vectors.QdrantStore, error) {
	cfg, err := configs.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	model, err := models.NewEmbeddingClient(cfg.Embedding.BaseURL, cfg.Embedding.Model, cfg.Embedding.MaxSeqLength)
	if err != nil {
		return nil, nil, err
	}

	store, err := vectors.NewQdrantStore(cfg.Qdrant.Host, cfg.Qdrant.Port, cfg.Qdrant.OnDisk)
	if err != nil {
		return nil, nil, err
	}

	ledger, err := storage.NewSQLiteLedger(cfg.Pipeline.LedgerPath)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	var notifier notify.Notifier
	if cfg.Discord.Token != "" {
		if notifier, err = notify.NewDiscordNotifier(cfg.Discord.Token, cfg.Discord.ChannelID); err != nil {
			log.Printf("⚠️ Discord notifier disabled: %v", err)
			notifier = nil
		}
	}

	return pipeline.New(cfg, model, store, ledger, notifier), store, nil
}

func runCmd() *cobra.Command {
	var fromStage string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the ingestion pipeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, store, err := buildPipeline()
			if err != nil {
				return err
			}
			defer store.Close()
			return p.Run(cmd.Context(), fromStage)
		},
	}
	cmd.Flags().StringVar(&fromStage, "from-stage", "", fmt.Sprintf("resume from a stage %v", pipeline.Stages))
	return cmd
}

func searchCmd() *cobra.Command {
	var (
		company      string
		sections     []int
		priorities   []string
		highPriority bool
		limit        int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a filtered similarity search against the collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, store, err := buildPipeline()
			if err != nil {
				return err
			}
			defer store.Close()

			filters := vectors.Filters{}
			if company != "" {
				filters.Match = map[string]any{"company": company}
			}
			if len(sections) > 0 {
				anyOf := make([]any, len(sections))
				for i, s := range sections {
					anyOf[i] = s
				}
				filters.AnyOf = map[string][]any{"section": anyOf}
			}
			if highPriority {
				priorities = []string{"high", "highest"}
			}
			if len(priorities) > 0 {
				anyOf := make([]any, len(priorities))
				for i, pr := range priorities {
					anyOf[i] = pr
				}
				if filters.AnyOf == nil {
					filters.AnyOf = map[string][]any{}
				}
				filters.AnyOf["priority"] = anyOf
			}

			results, err := p.Query(cmd.Context(), args[0], filters, limit)
			if err != nil {
				return err
			}

			for i, r := range results {
				fmt.Printf("\n%d. [Score: %.4f]\n", i+1, r.Score)
				fmt.Printf("   Company: %v\n", r.Payload["company"])
				fmt.Printf("   Section: %v (%v)\n", r.Payload["section"], r.Payload["section_name"])
				fmt.Printf("   Date: %v\n", r.Payload["reportDate"])
				fmt.Printf("   Priority: %v\n", r.Payload["priority"])
				fmt.Printf("   Text Preview: %s\n", preview(r.Payload["text"], 300))
				fmt.Printf("   Chunk ID: %v\n", r.Payload["chunk_id"])
			}
			if len(results) == 0 {
				fmt.Println("No results.")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&company, "company", "", "exact company name filter")
	cmd.Flags().IntSliceVar(&sections, "sections", nil, "restrict to these section codes")
	cmd.Flags().StringSliceVar(&priorities, "priorities", nil, "restrict to these priority tiers")
	cmd.Flags().BoolVar(&highPriority, "high-priority", false, "shorthand for --priorities high,highest")
	cmd.Flags().IntVar(&limit, "limit", 5, "maximum number of results")
	return cmd
}

func reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print the chunk distribution tree from the staged artifact",
		RunE: func(_ *cobra.Command, _ []string) error {
			p, store, err := buildPipeline()
			if err != nil {
				return err
			}
			defer store.Close()

			tree, err := p.Report()
			if err != nil {
				return err
			}
			fmt.Print(tree)
			return nil
		},
	}
}

func preview(v any, n int) string {
	s := fmt.Sprintf("%v", v)
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
