package scheduler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wagnojunior/financial-report/internal/modules/report"
)

// ReportGenerator runs one full analysis for a portfolio.
type ReportGenerator interface {
	Generate(ctx context.Context, portfolio string) (*report.Report, error)
}

// PortfolioLister enumerates the configured portfolios.
type PortfolioLister interface {
	Portfolios() ([]string, error)
}

// ReportJob regenerates the report of every configured portfolio. A failure
// on one portfolio does not stop the others.
type ReportJob struct {
	reports    ReportGenerator
	portfolios PortfolioLister
	log        zerolog.Logger
}

func NewReportJob(reports ReportGenerator, portfolios PortfolioLister, log zerolog.Logger) *ReportJob {
	return &ReportJob{
		reports:    reports,
		portfolios: portfolios,
		log:        log.With().Str("job", "report").Logger(),
	}
}

func (j *ReportJob) Name() string { return "report" }

func (j *ReportJob) Run(ctx context.Context) error {
	names, err := j.portfolios.Portfolios()
	if err != nil {
		return fmt.Errorf("failed to list portfolios: %w", err)
	}

	var failed int
	for _, name := range names {
		rep, err := j.reports.Generate(ctx, name)
		if err != nil {
			failed++
			j.log.Error().Err(err).Str("portfolio", name).Msg("Report generation failed")
			continue
		}
		j.log.Info().Str("portfolio", name).Str("report_id", rep.ID).Msg("Report regenerated")
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d portfolios failed", failed, len(names))
	}
	return nil
}
