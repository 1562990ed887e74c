package protocol

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/exportdss/downstream-cli/internal/hscode"
	"github.com/exportdss/downstream-cli/internal/model"
	"github.com/exportdss/downstream-cli/pkg/comtrade"
)

const (
	// DefaultReporter is Indonesia's numeric country code, the domestic
	// side of every downstreaming comparison.
	DefaultReporter = "360"

	// DefaultStageDelay spaces the four collection stages apart to stay
	// friendly with the Comtrade preview tier.
	DefaultStageDelay = time.Second
)

// DefaultYears returns the standard five-year analysis window. The current
// and previous year are skipped because Comtrade annual figures for them
// are typically incomplete.
func DefaultYears(now time.Time) []int {
	end := now.Year() - 2
	years := make([]int, 0, 5)
	for y := end - 4; y <= end; y++ {
		years = append(years, y)
	}
	return years
}

// Runner drives the four-stage collection protocol for one commodity:
// domestic raw exports, domestic semi-processed exports, domestic finished
// exports, and finished-product imports across the major importing
// countries as a global demand proxy.
type Runner struct {
	client     comtrade.Client
	reporter   string
	stageDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration)
	now        func() time.Time
}

// Option adjusts Runner construction.
type Option func(*Runner)

// WithReporter overrides the domestic reporter country code.
func WithReporter(code string) Option {
	return func(r *Runner) { r.reporter = code }
}

// WithStageDelay overrides the pause between collection stages.
func WithStageDelay(d time.Duration) Option {
	return func(r *Runner) { r.stageDelay = d }
}

// WithSleep replaces the inter-stage pause implementation, for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration)) Option {
	return func(r *Runner) { r.sleep = sleep }
}

// WithNow replaces the clock used to derive the default year window.
func WithNow(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// NewRunner builds a Runner around the given Comtrade client.
func NewRunner(client comtrade.Client, opts ...Option) *Runner {
	r := &Runner{
		client:     client,
		reporter:   DefaultReporter,
		stageDelay: DefaultStageDelay,
		sleep:      sleepCtx,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the protocol for one stage assignment and analyzes the
// result. Years defaults to the standard window when empty. A stage with
// no retrievable data contributes an empty dataset; only an invalid
// assignment or context cancellation aborts the run.
func (r *Runner) Run(ctx context.Context, a model.StageAssignment, years []int) (*model.ProtocolResult, error) {
	if err := hscode.ValidateAssignment(a); err != nil {
		return nil, err
	}
	if len(years) == 0 {
		years = DefaultYears(r.now())
	}

	zap.S().Infow("starting four-stage collection",
		"raw", a.Raw, "semi", a.Semi, "finished", a.Finished, "years", years)

	var d model.ProtocolDatasets
	var err error

	d.RawExport, err = r.client.ExportSeries(ctx, r.reporter, a.Raw, years)
	if err != nil {
		return nil, err
	}
	r.sleep(ctx, r.stageDelay)

	if a.Semi != "" {
		d.SemiExport, err = r.client.ExportSeries(ctx, r.reporter, a.Semi, years)
		if err != nil {
			return nil, err
		}
		r.sleep(ctx, r.stageDelay)
	} else {
		zap.S().Info("no semi-processed code assigned, skipping stage")
	}

	d.FinishedExport, err = r.client.ExportSeries(ctx, r.reporter, a.Finished, years)
	if err != nil {
		return nil, err
	}
	r.sleep(ctx, r.stageDelay)

	d.GlobalFinishedImport, err = r.client.ImportSeries(ctx, comtrade.ReporterWorld, a.Finished, years)
	if err != nil {
		return nil, err
	}

	return &model.ProtocolResult{
		RawCode:      a.Raw,
		SemiCode:     a.Semi,
		FinishedCode: a.Finished,
		Years:        years,
		Datasets:     d,
		Analysis:     Analyze(d),
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
