package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

func newAskCommand(svc Services) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question with the generated response",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if svc.Query == nil {
				return errors.New("query service not configured")
			}
			answer, err := svc.Query.Answer(cmd.Context(), strings.Join(args, " "), limit)
			if err != nil {
				return fmt.Errorf("answer failed: %w", err)
			}

			cmd.Println(answer.Text)
			cmd.Println()
			if answer.NoSources {
				cmd.Println("No relevant sources.")
				return nil
			}
			cmd.Printf("Sources (%s", answer.Strategy)
			if answer.Expanded {
				cmd.Print(", expanded")
			}
			if answer.CacheHit {
				cmd.Print(", cached")
			}
			cmd.Println("):")
			for i, src := range answer.Sources {
				cmd.Printf("  [%d] %s (%.2f)\n", i+1, sourceTitle(src.Chunk), src.RelevanceScore)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of sources (0 uses the optimizer default)")
	return cmd
}

func newSearchCommand(svc Services) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Show ranked sources and score breakdown for a query",
		Long: `Runs retrieval without generation and prints the search configuration the
optimizer chose, whether the query was expanded and how each source was scored.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if svc.Query == nil {
				return errors.New("query service not configured")
			}
			result, err := svc.Query.Search(cmd.Context(), strings.Join(args, " "), limit)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			if asJSON {
				data, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal search result: %w", err)
				}
				cmd.Println(string(data))
				return nil
			}
			printSearchResult(cmd, result)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "maximum number of sources")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output the result as JSON")
	return cmd
}

func printSearchResult(cmd *cobra.Command, result *domain.SearchResult) {
	cfg := result.Config
	cmd.Printf("Strategy: %s  n_results=%d  threshold=%.2f  boost_keywords=%t\n",
		cfg.Strategy, cfg.NResults, cfg.SimilarityThreshold, cfg.BoostKeywords)
	if result.Expanded {
		cmd.Printf("Expanded query: %s\n", result.ExpandedQuery)
	}
	if result.Unavailable {
		cmd.Println("Warning: chunk store unavailable, results may be incomplete.")
	}
	if len(result.Sources) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println()
	for i, src := range result.Sources {
		b := src.Breakdown
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, sourceTitle(src.Chunk), src.RelevanceScore)
		cmd.Printf("      similarity=%.3f keyword=%.3f\n", src.Similarity, src.KeywordScore)
		cmd.Printf("      metadata=%.2f priority=%.2f overlap=%.2f section=%.2f structure=%.2f semantic=%.2f lexical=%.2f\n",
			b.KeywordMetadata, b.PriorityTerms, b.TokenOverlap, b.SectionMatch, b.Structure, b.Semantic, b.Lexical)
	}
}

func sourceTitle(c domain.Chunk) string {
	switch {
	case c.Metadata.Section != "" && c.Metadata.Source != "":
		return c.Metadata.Source + " / " + c.Metadata.Section
	case c.Metadata.Section != "":
		return c.Metadata.Section
	case c.Metadata.Source != "":
		return c.Metadata.Source
	default:
		return c.ID
	}
}
