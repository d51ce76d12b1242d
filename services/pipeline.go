package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"ski-forecast-mailer/models"
	"ski-forecast-mailer/utils"
)

// ForecastSource fetches the raw forecast for a resort.
type ForecastSource interface {
	FetchResortForecast(ctx context.Context, resortID string) (*models.RawForecast, error)
}

// Directory returns the addresses a summary is sent to.
type Directory interface {
	Recipients(ctx context.Context) ([]string, error)
}

// RunResult describes what one invocation did.
type RunResult struct {
	RunID      string
	Skipped    bool
	Summary    *models.ForecastSummary
	Recipients int
	Report     *models.DispatchReport
}

// Pipeline runs gate -> fetch -> transform -> recipients -> notify once.
type Pipeline struct {
	RunID       string
	ResortID    string
	Gate        *Gate
	Source      ForecastSource
	Transformer *Transformer
	Directory   Directory
	Notifier    *Notifier
	Logger      *utils.Logger
}

// Run executes the pipeline for the day containing now. Fetch, transform and
// directory failures abort the run and are returned; failed sends are only
// reported in the result.
func (p *Pipeline) Run(ctx context.Context, now time.Time) (*RunResult, error) {
	result := &RunResult{RunID: p.RunID}

	if !p.Gate.ShouldRun(now) {
		p.Logger.Info("[pipeline] %s is not a reporting day (scheduled: %s), nothing to do",
			p.Gate.Weekday(now), p.Gate.Days())
		result.Skipped = true
		return result, nil
	}

	p.Logger.Info("[pipeline] Run %s: grabbing forecast for resort %s", p.RunID, p.ResortID)
	raw, err := p.Source.FetchResortForecast(ctx, p.ResortID)
	if err != nil {
		return result, fmt.Errorf("fetch forecast: %w", err)
	}
	p.Logger.Info("[pipeline] Got forecast for %q with %d samples", raw.Name, len(raw.Forecast))

	summary, err := p.Transformer.Transform(raw)
	if err != nil {
		return result, fmt.Errorf("transform forecast: %w", err)
	}
	result.Summary = summary

	recipients, err := p.Directory.Recipients(ctx)
	if err != nil {
		return result, fmt.Errorf("fetch recipients: %w", err)
	}
	result.Recipients = len(recipients)
	p.Logger.Info("[pipeline] Grabbed %d recipient(s)", len(recipients))

	report, err := p.Notifier.Notify(ctx, summary, recipients)
	result.Report = report
	if err != nil {
		return result, fmt.Errorf("notify: %w", err)
	}

	p.Logger.Event("run-complete", map[string]string{
		"run_id":     p.RunID,
		"resort":     summary.ResortName,
		"records":    strconv.Itoa(len(summary.Records)),
		"recipients": strconv.Itoa(len(recipients)),
		"sent":       strconv.Itoa(report.Sent),
		"failed":     strconv.Itoa(len(report.Failures)),
	})
	return result, nil
}
