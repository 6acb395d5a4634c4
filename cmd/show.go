package cmd

import (
	"fmt"
	"os"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/lcrespin/towerstats/internal/model"
	"github.com/lcrespin/towerstats/internal/report"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show <index|timestamp>",
	Short: "Show one reconciled session in full",
	Long: `Show a session by its index in 'list' (0 is the newest) or by timestamp.
A timestamp matching several sessions shows all of them.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print the session as JSON")
}

// findSessions resolves an index or a timestamp to sessions.
func findSessions(sessions []model.Session, key string) []model.Session {
	if i, err := strconv.Atoi(key); err == nil {
		if i >= 0 && i < len(sessions) {
			return sessions[i : i+1]
		}
		return nil
	}
	var out []model.Session
	for _, s := range sessions {
		if string(s.Timestamp) == key {
			out = append(out, s)
		}
	}
	return out
}

func runShow(cmd *cobra.Command, args []string) error {
	ds, _, err := loadDataset(cmd.Context())
	if err != nil {
		return err
	}
	found := findSessions(ds.Sessions, args[0])
	if len(found) == 0 {
		fmt.Fprintf(os.Stderr, "No session found for %q (%d sessions loaded)\n", args[0], len(ds.Sessions))
		return nil
	}
	for _, s := range found {
		if showJSON {
			b, err := json.MarshalIndent(s, "", "  ")
			if err != nil {
				return fmt.Errorf("encode session: %w", err)
			}
			fmt.Fprintln(os.Stdout, string(b))
			continue
		}
		report.PrintSession(os.Stdout, s)
	}
	return nil
}
