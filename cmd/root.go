package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/gilbot/internal/store"
)

const defaultCatalogDir = "data"

var rootCmd = &cobra.Command{
	Use:   "gilbot",
	Short: "Geometry tutor with curated lessons, activities and videos",
	Long:  "Gilbot answers geometry questions as a patient tutor and points students at matching lessons, GeoGebra activities and Khan Academy videos.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides GILBOT_DB env var)")
	rootCmd.PersistentFlags().String("catalog-dir", "", "Directory holding the catalog CSV files (overrides GILBOT_CATALOG_DIR env var)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(lookupsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then GILBOT_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// resolveCatalogDir returns --catalog-dir, then GILBOT_CATALOG_DIR, then
// ./data.
func resolveCatalogDir(cmd *cobra.Command) string {
	if d, _ := cmd.Flags().GetString("catalog-dir"); d != "" {
		return d
	}
	if d := os.Getenv("GILBOT_CATALOG_DIR"); d != "" {
		return d
	}
	return defaultCatalogDir
}
