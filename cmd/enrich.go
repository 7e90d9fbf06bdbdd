package main

import (
	"context"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/salgsmotor/internal/model"
	"github.com/sells-group/salgsmotor/internal/report"
)

var (
	enrichForce           bool
	enrichRecommendations bool
	enrichFormat          string
	enrichReport          string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich ORGNR...",
	Short: "Enrich one or more companies by organization number",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if enrichFormat != report.FormatJSON && enrichFormat != report.FormatYAML {
			return eris.Errorf("unknown --format %q (json or yaml)", enrichFormat)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, "enrich")
		if err != nil {
			return err
		}
		defer env.Close()

		return runEnrich(ctx, env.Pipeline, args, enrichOptions{
			Force:           enrichForce,
			Recommendations: enrichRecommendations,
			Format:          enrichFormat,
			ReportPath:      enrichReport,
			Concurrency:     cfg.Batch.MaxConcurrent,
		}, cmd.OutOrStdout())
	},
}

// enricher is the part of the pipeline the enrich and serve commands use.
type enricher interface {
	Enrich(ctx context.Context, orgnr string, force bool) (*model.Record, error)
	Recommend(rec *model.Record, now time.Time) []model.Recommendation
}

type enrichOptions struct {
	Force           bool
	Recommendations bool
	Format          string
	ReportPath      string
	Concurrency     int
}

// runEnrich enriches every orgnr and prints the results in argument order.
// A single org's failure is returned; with several orgs failures are
// reported inline and only a run where all fail is an error.
func runEnrich(ctx context.Context, p enricher, orgnrs []string, opts enrichOptions, w io.Writer) error {
	now := time.Now()
	results := make([]report.Result, len(orgnrs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Concurrency, 1))
	for i, orgnr := range orgnrs {
		g.Go(func() error {
			results[i] = enrichOne(gctx, p, orgnr, opts, now)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "enrich: interrupted")
	}

	if opts.ReportPath != "" {
		summaries := make([]report.Summary, len(results))
		for i, r := range results {
			if r.Record != nil && r.Recommendations == nil {
				r.Recommendations = p.Recommend(r.Record, now)
			}
			summaries[i] = report.Summarize(r)
		}
		if err := report.WriteXLSX(opts.ReportPath, summaries); err != nil {
			return err
		}
		zap.L().Info("report written", zap.String("path", opts.ReportPath), zap.Int("rows", len(summaries)))
	}

	if len(results) == 1 {
		if results[0].Failed() {
			return eris.Errorf("enrich %s: %s", results[0].OrgNumber, results[0].Error)
		}
		return report.Encode(w, results[0], opts.Format)
	}

	if err := report.Encode(w, results, opts.Format); err != nil {
		return err
	}
	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	if failed == len(results) {
		return eris.Errorf("enrich: all %d organizations failed", failed)
	}
	return nil
}

func enrichOne(ctx context.Context, p enricher, orgnr string, opts enrichOptions, now time.Time) report.Result {
	res := report.Result{OrgNumber: orgnr}
	rec, err := p.Enrich(ctx, orgnr, opts.Force)
	if err != nil {
		zap.L().Error("enrichment failed", zap.String("orgnr", orgnr), zap.Error(err))
		res.Error = err.Error()
		return res
	}
	res.OrgNumber = rec.OrgNumber.String()
	res.Record = rec
	if opts.Recommendations {
		res.Recommendations = p.Recommend(rec, now)
	}
	return res
}

func init() {
	enrichCmd.Flags().BoolVar(&enrichForce, "force", false, "bypass the cache and re-fetch")
	enrichCmd.Flags().BoolVar(&enrichRecommendations, "recommendations", false, "include sales recommendations")
	enrichCmd.Flags().StringVar(&enrichFormat, "format", report.FormatJSON, "output format: json or yaml")
	enrichCmd.Flags().StringVar(&enrichReport, "report", "", "also write an xlsx summary to this path")
	rootCmd.AddCommand(enrichCmd)
}
