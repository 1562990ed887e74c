package comtrade

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/exportdss/downstream-cli/internal/model"
)

// ExportSeries assembles the export dataset for one reporter and commodity
// code across a year range: one Fetch per year, a fixed delay between years,
// future years skipped. Failed units are dropped and the call returns
// whatever fragments succeeded.
func (c *client) ExportSeries(ctx context.Context, reporter, code string, years []int) (model.Dataset, error) {
	zap.L().Info("fetching export series",
		zap.String("reporter", reporter),
		zap.String("hs_code", code),
		zap.Ints("years", years),
	)
	return c.series(ctx, reporter, model.FlowExport, code, years, c.cfg.InterYearDelay)
}

// ImportSeries assembles the import dataset for one reporter and commodity
// code. The aggregate scope ReporterWorld loops the configured major
// importer list with a shorter inter-call delay and concatenates across
// both reporters and years.
func (c *client) ImportSeries(ctx context.Context, reporter, code string, years []int) (model.Dataset, error) {
	zap.L().Info("fetching import series",
		zap.String("reporter", reporter),
		zap.String("hs_code", code),
		zap.Ints("years", years),
	)

	if reporter != ReporterWorld {
		return c.series(ctx, reporter, model.FlowImport, code, years, c.cfg.InterYearDelay)
	}

	var all model.Dataset
	for _, importer := range c.cfg.Importers {
		ds, err := c.series(ctx, importer, model.FlowImport, code, years, c.cfg.InterReporterDelay)
		if err != nil {
			return all, err
		}
		all = append(all, ds...)
	}

	if all.Empty() {
		zap.L().Warn("no import data returned", zap.String("hs_code", code))
	}
	return all, nil
}

// series runs the per-year fetch loop for one reporter scope. Only context
// cancellation aborts the loop; per-unit failures are logged and skipped.
func (c *client) series(ctx context.Context, reporter string, flow model.Flow, code string, years []int, delay time.Duration) (model.Dataset, error) {
	currentYear := c.now().Year()

	var out model.Dataset
	for i, year := range years {
		if year > currentYear {
			continue
		}
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		if i > 0 {
			c.sleep(ctx, delay)
		}

		resp, err := c.Fetch(ctx, Query{
			Reporter: reporter,
			Partner:  PartnerWorld,
			Flow:     flow,
			Code:     code,
			Period:   strconv.Itoa(year),
		})
		if err != nil {
			zap.L().Warn("dropping failed series unit",
				zap.String("reporter", reporter),
				zap.String("hs_code", code),
				zap.Int("year", year),
				zap.Error(err),
			)
			continue
		}
		out = append(out, resp.Data...)
	}

	if out.Empty() {
		zap.L().Warn("no data returned for series",
			zap.String("reporter", reporter),
			zap.String("hs_code", code),
		)
	}
	return out, nil
}
