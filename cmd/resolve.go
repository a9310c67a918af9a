package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/gilbot/internal/catalog"
	"github.com/abhisek/gilbot/internal/logger"
	"github.com/abhisek/gilbot/internal/resolver"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <keyword>",
	Short: "Resolve a keyword against the catalogs without calling a model",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keyword := strings.Join(args, " ")
		kindFlag, _ := cmd.Flags().GetString("kind")
		max, _ := cmd.Flags().GetInt("max")
		asJSON, _ := cmd.Flags().GetBool("json")

		kinds := catalog.Kinds
		if kindFlag != "" {
			k, err := catalog.ParseKind(kindFlag)
			if err != nil {
				return err
			}
			kinds = []catalog.Kind{k}
		}

		log, err := logger.NewFromEnv()
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		defer log.Sync()

		cat, err := catalog.LoadDir(cmd.Context(), resolveCatalogDir(cmd), catalog.DefaultFiles(), log)
		if err != nil {
			return fmt.Errorf("load catalogs: %w", err)
		}
		res := resolver.New(cat)

		results := make([]resolver.Resolved, 0, len(kinds))
		for _, k := range kinds {
			r, err := res.Resolve(k, keyword, max)
			if err != nil {
				return err
			}
			results = append(results, r)
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}

		for _, r := range results {
			printResolved(r)
		}
		if link := resolver.ComputationLink(keyword); link != "" {
			fmt.Printf("Compute:  %s\n", link)
		}
		return nil
	},
}

func printResolved(r resolver.Resolved) {
	fmt.Printf("%s (%s)\n", strings.ToUpper(string(r.Kind)), r.Match)
	fmt.Println(strings.Repeat("─", 60))
	if !r.Found() {
		if r.FallbackURL != "" {
			fmt.Printf("  no match, browse %s\n\n", r.FallbackURL)
		} else {
			fmt.Print("  no match\n\n")
		}
		return
	}
	for i, e := range r.Entries() {
		marker := " "
		if i == 0 {
			marker = "*"
		}
		fmt.Printf("%s %-12s  %s\n", marker, truncate(e.ID, 12), e.Title)
		if e.URL != "" {
			fmt.Printf("  %-12s  %s\n", "", e.URL)
		}
	}
	fmt.Println()
}

func init() {
	resolveCmd.Flags().StringP("kind", "k", "", "Only resolve one kind (lesson, diagram, video)")
	resolveCmd.Flags().IntP("max", "m", 0, "Maximum results per kind (0 = kind default)")
	resolveCmd.Flags().Bool("json", false, "Print results as JSON")
}
