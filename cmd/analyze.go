package cmd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/lcrespin/towerstats/internal/aggregator"
	"github.com/lcrespin/towerstats/internal/model"
	"github.com/lcrespin/towerstats/internal/pipeline"
)

const analyzeSystemPrompt = `You are the statistician of a group of friends who play a tower game
together. You are given their leaderboards as JSON and a question from one of
them.

Rules:
- Answer ONLY from the data provided. Never invent or estimate statistics.
- Always cite specific numbers when making a claim.
- If the data is insufficient to answer confidently, say so explicitly.
- Keep it short and friendly. Light teasing of the losers is welcome.

Glossary:
- Group: a fixed set of players who played together. Totals only compare within a group.
- today_wins: games won in one session. total_wins: career wins within that group.
- best_total: a player's highest career total in a group.
- Win %: games won divided by games played in the sessions the player attended.
- ELO: round-robin rating, 1500 at start, K=32. Each session ranks players by wins.
- Kills, deaths and self kills are career counters from the detailed sessions only.`

var (
	analyzeModel  string
	analyzeAPIKey string
	analyzeGroup  string
	analyzePlayer string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <question>",
	Short: "AI-powered grounded analysis of the leaderboards (requires ANTHROPIC_API_KEY)",
	Long: `Send the current leaderboards to Claude and stream its answer to a
question. --group narrows the data to one group, --player adds a player's
session history.

Example:
  towerstats analyze "who improved the most this month?" --player MEHDI`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeModel, "model", "claude-haiku-4-5-20251001", "Anthropic model to use")
	analyzeCmd.Flags().StringVar(&analyzeAPIKey, "api-key", "", "Anthropic API key (falls back to $ANTHROPIC_API_KEY)")
	analyzeCmd.Flags().StringVar(&analyzeGroup, "group", "", "restrict the data to one group")
	analyzeCmd.Flags().StringVar(&analyzePlayer, "player", "", "include this player's session history")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	ds, _, err := loadDataset(cmd.Context())
	if err != nil {
		return err
	}

	sessions := ds.Sessions
	if analyzeGroup != "" {
		g, err := resolveGroup(ds.Sessions, analyzeGroup)
		if err != nil {
			return err
		}
		sessions = aggregator.Select(ds.Sessions, aggregator.Filter{Group: g})
	}
	var player string
	if analyzePlayer != "" {
		p, ok := resolvePlayer(sessions, analyzePlayer)
		if !ok {
			return fmt.Errorf("no sessions found for %q", analyzePlayer)
		}
		player = p
	}

	contextJSON, err := buildLeaderboardContext(ds, sessions, player)
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}
	return callAnthropic(cmd.Context(), analyzeAPIKey, analyzeModel, contextJSON, question)
}

// buildLeaderboardContext serialises the tables computed over sessions into
// compact JSON. Player is optional.
func buildLeaderboardContext(ds *pipeline.Dataset, sessions []model.Session, player string) (string, error) {
	type killEntry struct {
		Player    string  `json:"player"`
		Kills     int     `json:"kills"`
		Deaths    int     `json:"deaths"`
		SelfKills int     `json:"self_kills"`
		KD        float64 `json:"kd"`
	}

	winRates := aggregator.WinPercentage(sessions)
	for i := range winRates {
		winRates[i].Percent = round2(winRates[i].Percent)
	}
	elo := aggregator.Elo(sessions, ds.Elo)
	for i := range elo {
		elo[i].Rating = round2(elo[i].Rating)
	}

	summary := aggregator.Summary(sessions, ds.Elo)
	summary.LatestEvening = nil

	doc := map[string]any{
		"subject":     "leaderboards",
		"loaded_at":   ds.LoadedAt.Format("2006-01-02 15:04"),
		"summary":     summary,
		"rankings":    aggregator.RankingsByGroup(sessions),
		"win_percent": winRates,
		"elo":         elo,
	}
	if aggregator.HasDetail(sessions) {
		stats := aggregator.KillStats(sessions)
		kills := make([]killEntry, len(stats))
		for i, k := range stats {
			kills[i] = killEntry{Player: k.Player, Kills: k.Kills, Deaths: k.Deaths, SelfKills: k.SelfKills, KD: round2(k.KDRatio())}
		}
		global, _ := aggregator.KillSources(sessions)
		doc["kills"] = kills
		doc["kill_matrix"] = aggregator.KillMatrix(sessions)
		doc["kill_sources"] = aggregator.SortedSources(global)
	}
	if player != "" {
		doc["player"] = player
		doc["player_history"] = aggregator.PlayerTrend(sessions, player)
	}

	b, err := json.Marshal(doc)
	return string(b), err
}

// round2 rounds a float64 to 2 decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// analysisParams builds the request: the leaderboard prompt as system text and
// the data plus question as the single user turn.
func analysisParams(modelID, dataJSON, question string) anthropic.MessageNewParams {
	userMsg := fmt.Sprintf("DATA:\n%s\n\nQUESTION: %s", dataJSON, question)
	return anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: analyzeSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMsg)),
		},
	}
}

// apiError turns the SDK's status errors into messages a user can act on.
func apiError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("streaming error: %w", err)
	}
	switch apiErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("API authentication failed (HTTP %d), check your API key", apiErr.StatusCode)
	case http.StatusTooManyRequests:
		return fmt.Errorf("API rate limit reached, try again shortly: %w", err)
	case 529:
		return fmt.Errorf("API overloaded, try again later: %w", err)
	}
	return fmt.Errorf("API error (HTTP %d): %w", apiErr.StatusCode, err)
}

// callAnthropic streams a response from the Anthropic API to stdout.
func callAnthropic(ctx context.Context, apiKey, modelID, dataJSON, question string) error {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("no API key: set ANTHROPIC_API_KEY or use --api-key")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	stream := client.Messages.NewStreaming(ctx, analysisParams(modelID, dataJSON, question))

	fmt.Fprintln(os.Stdout, "\n─── Leaderboard analysis ─────────────────────────────")
	for stream.Next() {
		evt := stream.Current()
		if evt.Type != "content_block_delta" {
			continue
		}
		if delta := evt.AsContentBlockDelta(); delta.Delta.Type == "text_delta" {
			fmt.Fprint(os.Stdout, delta.Delta.AsTextDelta().Text)
		}
	}
	fmt.Fprintln(os.Stdout, "\n──────────────────────────────────────────────────────")

	if err := stream.Err(); err != nil {
		return apiError(err)
	}
	return nil
}
