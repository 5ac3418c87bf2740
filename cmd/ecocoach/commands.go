package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/greenloop-ai/ecocoach/internal/usecase/chat"
	"github.com/greenloop-ai/ecocoach/internal/usecase/retrieval"
	"github.com/greenloop-ai/ecocoach/internal/version"
)

func newIndexCmd() *cobra.Command {
	var rebuild bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the vector index, or report on the persisted one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := theApp
			ctx := cmd.Context()

			if rebuild {
				built, buildErr := a.indexer.Build(ctx)
				if buildErr != nil {
					return buildErr
				}
				a.logger.Info("Index rebuilt",
					zap.Int("entries", built.Len()),
					zap.Int("dimension", built.Dimension()))
				fmt.Printf("Rebuilt index: %d entries, dimension %d\n", built.Len(), built.Dimension())
				return nil
			}

			loaded, err := a.indexer.BuildOrLoad(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Index ready: %d entries, dimension %d (built %s)\n",
				loaded.Len(), loaded.Dimension(), loaded.BuiltAt().Format("2006-01-02 15:04:05"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "re-embed the corpus even when a persisted index exists")
	return cmd
}

type searchResultOut struct {
	DocumentID string  `json:"document_id"`
	Seq        int     `json:"seq"`
	Score      float64 `json:"score"`
	Text       string  `json:"text"`
}

func newSearchCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Rank indexed chunks by similarity to a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := theApp
			ctx := cmd.Context()

			idx, err := a.indexer.BuildOrLoad(ctx)
			if err != nil {
				return err
			}

			k := limit
			if k <= 0 {
				k = a.cfg.Index.TopK
			}

			svc := retrieval.New(idx, a.embedder)
			results, err := svc.Query(ctx, args[0], k)
			if err != nil {
				return err
			}

			if asJSON {
				out := make([]searchResultOut, 0, len(results))
				for _, r := range results {
					out = append(out, searchResultOut{
						DocumentID: r.DocumentID(),
						Seq:        r.Seq(),
						Score:      r.Score(),
						Text:       r.Text(),
					})
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			if len(results) == 0 {
				fmt.Println("No results.")
				return nil
			}
			for i, r := range results {
				fmt.Printf("%d. %s#%d  score=%.4f\n   %s\n", i+1, r.DocumentID(), r.Seq(), r.Score(), r.Text())
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of results (defaults to index.top_k)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}

func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [message]",
		Short: "Ask the coach a question grounded in the indexed corpus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := theApp
			ctx := cmd.Context()

			idx, err := a.indexer.BuildOrLoad(ctx)
			if err != nil {
				return err
			}

			retriever := retrieval.New(idx, a.embedder)
			svc := chat.New(retriever, a.completer, a.cfg.Index.TopK, a.cfg.Chat.FallbackReply, a.logger)

			fmt.Println(svc.Answer(ctx, args[0]))
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("ecocoach %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
