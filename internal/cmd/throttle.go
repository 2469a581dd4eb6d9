package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/canvashq/canvas/internal/output"
	"github.com/canvashq/canvas/internal/server/handlers"
)

var (
	throttleServer string
	throttleFormat string
)

var throttleCmd = &cobra.Command{
	Use:   "throttle",
	Short: "Inspect API throttle state",
}

var throttleStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show throttle bucket utilization of a running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(throttleFormat)
		if err != nil {
			return err
		}
		if format == output.FormatMarkdown {
			return fmt.Errorf("unsupported output format: %s", format)
		}

		base := strings.TrimRight(throttleServer, "/")
		if base == "" {
			base = fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
		}

		client := &http.Client{Timeout: 10 * time.Second}
		req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, base+"/throttle/stats", nil)
		if err != nil {
			return err
		}

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("query %s: %w", base, err)
		}
		defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned %d for /throttle/stats", resp.StatusCode)
		}

		var stats handlers.ThrottleStatsResponse
		if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
			return fmt.Errorf("decode throttle stats: %w", err)
		}

		if format == output.FormatJSON {
			payload, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(payload))
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), output.FormatThrottleStats(stats.APIs))
		fmt.Fprintf(cmd.OutOrStdout(), "Response cache: %d entries, %d hits, %d misses\n",
			stats.Cache.Entries, stats.Cache.Hits, stats.Cache.Misses)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(throttleCmd)
	throttleCmd.AddCommand(throttleStatsCmd)

	throttleStatsCmd.Flags().StringVar(&throttleServer, "server", "", "server base URL (default from config)")
	throttleStatsCmd.Flags().StringVar(&throttleFormat, "format", string(output.FormatTable), "output format: table|json")
}
