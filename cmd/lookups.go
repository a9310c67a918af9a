package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/gilbot/internal/catalog"
	"github.com/abhisek/gilbot/internal/store"
)

var lookupsCmd = &cobra.Command{
	Use:   "lookups",
	Short: "Show how keyword lookups have been resolving",
	RunE: func(cmd *cobra.Command, args []string) error {
		top, _ := cmd.Flags().GetInt("top")

		return withEvents(cmd, func(repo store.EventRepo) error {
			return printLookups(cmd, repo, top)
		})
	},
}

func printLookups(cmd *cobra.Command, repo store.EventRepo, top int) error {
	ctx := cmd.Context()
	stats, err := repo.KeywordLookupStats(ctx)
	if err != nil {
		return fmt.Errorf("query lookup stats: %w", err)
	}
	if len(stats) == 0 {
		fmt.Println("No keyword lookups recorded yet.")
		return nil
	}

	fmt.Println("Lookups by Kind")
	fmt.Println(strings.Repeat("─", 40))
	fmt.Printf("%-12s  %-12s  %8s\n", "Kind", "Outcome", "Count")
	fmt.Println(strings.Repeat("─", 40))
	for _, st := range stats {
		fmt.Printf("%-12s  %-12s  %8d\n", st.Kind, st.Outcome, st.Count)
	}

	for _, k := range catalog.Kinds {
		keywords, err := repo.TopKeywords(ctx, string(k), top)
		if err != nil {
			return fmt.Errorf("query top keywords: %w", err)
		}
		if len(keywords) == 0 {
			continue
		}
		fmt.Printf("\nTop %s keywords\n", k)
		fmt.Println(strings.Repeat("─", 40))
		for _, kc := range keywords {
			fmt.Printf("%-30s  %8d\n", truncate(kc.Keyword, 30), kc.Count)
		}
	}
	return nil
}

func init() {
	lookupsCmd.Flags().IntP("top", "n", 10, "Number of keywords to show per kind")
}
