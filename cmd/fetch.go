package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/exportdss/downstream-cli/internal/hscode"
	"github.com/exportdss/downstream-cli/internal/model"
	"github.com/exportdss/downstream-cli/internal/protocol"
	"github.com/exportdss/downstream-cli/pkg/comtrade"
)

var (
	fetchCode     string
	fetchFlow     string
	fetchReporter string
	fetchFromYear int
	fetchToYear   int
)

type fetchOutput struct {
	Code     string        `json:"hs_code"`
	Flow     string        `json:"flow"`
	Reporter string        `json:"reporter"`
	Years    []int         `json:"years"`
	Total    float64       `json:"total_value"`
	Data     model.Dataset `json:"data"`
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch a single trade series from UN Comtrade",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("fetch"); err != nil {
			return err
		}

		code, ok := hscode.CleanCode(fetchCode)
		if !ok {
			return eris.Errorf("invalid HS code: %q", fetchCode)
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		years := yearRange(fetchFromYear, fetchToYear)
		if years == nil {
			years = protocol.DefaultYears(timeNow())
		}

		client := comtrade.New(comtradeConfig(), st)

		var ds model.Dataset
		switch fetchFlow {
		case "X", "export":
			ds, err = client.ExportSeries(ctx, fetchReporter, code, years)
		case "M", "import":
			ds, err = client.ImportSeries(ctx, fetchReporter, code, years)
		default:
			return eris.Errorf("flow must be X or M, got %q", fetchFlow)
		}
		if err != nil {
			return eris.Wrap(err, "fetch series")
		}

		zap.L().Info("series fetched",
			zap.String("code", code),
			zap.String("reporter", fetchReporter),
			zap.Int("records", len(ds)),
			zap.Ints("years_with_data", ds.Years()),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(fetchOutput{
			Code:     code,
			Flow:     fetchFlow,
			Reporter: fetchReporter,
			Years:    years,
			Total:    ds.Total(),
			Data:     ds,
		})
	},
}

// yearRange expands an inclusive [from, to] flag pair, or nil when unset
// or inverted.
func yearRange(from, to int) []int {
	if from == 0 || to == 0 || to < from {
		return nil
	}
	var years []int
	for y := from; y <= to; y++ {
		years = append(years, y)
	}
	return years
}

func init() {
	fetchCmd.Flags().StringVar(&fetchCode, "code", "", "HS code, any accepted format (required)")
	fetchCmd.Flags().StringVar(&fetchFlow, "flow", "X", "trade flow: X (export) or M (import)")
	fetchCmd.Flags().StringVar(&fetchReporter, "reporter", protocol.DefaultReporter, "reporter country code, or \"all\" for the major-importer aggregate")
	fetchCmd.Flags().IntVar(&fetchFromYear, "from", 0, "first year of the window")
	fetchCmd.Flags().IntVar(&fetchToYear, "to", 0, "last year of the window")
	_ = fetchCmd.MarkFlagRequired("code")
	rootCmd.AddCommand(fetchCmd)
}
