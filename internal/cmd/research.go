package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/canvashq/canvas/internal/config"
	"github.com/canvashq/canvas/internal/core"
	"github.com/canvashq/canvas/internal/core/throttle"
	"github.com/canvashq/canvas/internal/observability"
	"github.com/canvashq/canvas/internal/output"
	"github.com/canvashq/canvas/internal/research"
)

var (
	researchSpecialty string
	researchLocation  string
	researchProduct   string
	researchDepth     string
	researchFormat    string
	researchTimeout   time.Duration
	researchNoStore   bool
)

var researchCmd = &cobra.Command{
	Use:   "research <doctor>",
	Short: "Research a doctor and produce a sales brief",
	Long: `Research a doctor and produce a sales brief.

Depth controls how much work a run does:
  instant  web search plus synthesis from result snippets
  deep     additionally scrapes the top hit for a practice profile

Identical requests within the cache window are answered from cache
without spending provider quota.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(researchFormat)
		if err != nil {
			return err
		}

		req := core.ResearchRequest{
			Doctor:    strings.Join(args, " "),
			Specialty: researchSpecialty,
			Location:  researchLocation,
			Product:   researchProduct,
			Depth:     core.ResearchDepth(strings.ToLower(strings.TrimSpace(researchDepth))),
		}

		ctx := cmd.Context()
		timeout := researchTimeout
		if timeout <= 0 {
			timeout = config.ResolveDepthTimeout(string(req.Depth), cfg.Intel.DefaultTimeout)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		var archive research.Archive
		if !researchNoStore {
			db, err := openStore(ctx)
			if err != nil {
				// Persistence is an optimization for the CLI; research
				// still works without it.
				observability.CLILogger.Warn("Store unavailable; running without persistence",
					zap.Error(err))
			} else {
				defer db.Close() // nolint:errcheck // best-effort cleanup
				archive = db
			}
		}

		engine, err := buildEngine(newResponseCache(), throttle.NewRegistry(cfg.Throttle), archive)
		if err != nil {
			return err
		}

		observability.CLILogger.Debug("Starting research",
			zap.String("doctor", req.Doctor),
			zap.String("depth", string(req.Depth)),
			zap.Duration("timeout", timeout))

		result, err := engine.Run(ctx, req)
		if err != nil {
			return err
		}

		rendered, err := output.NewFormatter(format).FormatResult(result)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(researchCmd)

	researchCmd.Flags().StringVar(&researchSpecialty, "specialty", "", "doctor specialty (e.g. cardiology)")
	researchCmd.Flags().StringVar(&researchLocation, "location", "", "practice location (city, state)")
	researchCmd.Flags().StringVar(&researchProduct, "product", "", "product being sold; focuses the sales brief")
	researchCmd.Flags().StringVar(&researchDepth, "depth", string(core.DepthInstant), "research depth: instant|deep")
	researchCmd.Flags().StringVar(&researchFormat, "format", string(output.FormatTable), "output format: table|json|markdown")
	researchCmd.Flags().DurationVar(&researchTimeout, "timeout", 0, "overall run deadline (default derived from depth)")
	researchCmd.Flags().BoolVar(&researchNoStore, "no-store", false, "skip the persistent research cache")
}
