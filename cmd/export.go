package cmd

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/lcrespin/towerstats/internal/server"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every table as one JSON document",
	Long: `Load the feed and write the dashboard document served by 'serve' at
/api/v1/dashboard: summary, group rankings, win percentages, ELO, kill
analytics, sessions by date and player colors.

Example:
  towerstats export --out dashboard.json`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file path (default: stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	ds, _, err := loadDataset(cmd.Context())
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(server.BuildDashboard(ds), "", "  ")
	if err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}

	if exportOut == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(exportOut, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write %s: %w", exportOut, err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s (%d sessions)\n", exportOut, len(ds.Sessions))
	return nil
}
