package main

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/exportdss/downstream-cli/internal/classify"
	"github.com/exportdss/downstream-cli/internal/hscode"
	"github.com/exportdss/downstream-cli/internal/model"
	"github.com/exportdss/downstream-cli/internal/protocol"
	"github.com/exportdss/downstream-cli/internal/store"
	"github.com/exportdss/downstream-cli/pkg/anthropic"
	"github.com/exportdss/downstream-cli/pkg/comtrade"
)

var (
	analyzeFromYear   int
	analyzeToYear     int
	analyzeReclassify bool
)

// analyzeOutput is the JSON document written to stdout after a full run.
type analyzeOutput struct {
	SearchID       string                `json:"search_id"`
	Classification *model.Classification `json:"classification"`
	Assignment     model.StageAssignment `json:"assignment"`
	Result         *model.ProtocolResult `json:"result"`
	Narrative      string                `json:"narrative,omitempty"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <commodity>",
	Short: "Run the full downstreaming analysis for a commodity",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		input := strings.Join(args, " ")

		if err := cfg.Validate("analyze"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		ai := anthropic.NewClient(cfg.Anthropic.Key)
		classifier := classify.New(ai,
			classify.WithClassifyModel(cfg.Anthropic.ClassifyModel),
			classify.WithSummaryModel(cfg.Anthropic.SummaryModel),
		)

		c := storedClassification(ctx, st, input)
		if c == nil {
			c, err = classifier.Classify(ctx, input)
			if err != nil {
				return eris.Wrap(err, "classify commodity")
			}
		}

		assignment := hscode.ResolveClassification(c)
		if err := hscode.ValidateAssignment(assignment); err != nil {
			return eris.Wrapf(err, "no usable HS codes for %q", input)
		}

		classJSON, err := json.Marshal(c)
		if err != nil {
			return eris.Wrap(err, "marshal classification")
		}
		search := &model.SearchRecord{
			ID:             uuid.NewString(),
			Input:          input,
			Commodity:      c.CommodityName,
			RawCode:        assignment.Raw,
			SemiCode:       assignment.Semi,
			FinishedCode:   assignment.Finished,
			Classification: classJSON,
			CreatedAt:      time.Now().UTC(),
		}
		if err := st.SaveSearch(ctx, search); err != nil {
			zap.L().Warn("save search failed", zap.Error(err))
		}

		client := comtrade.New(comtradeConfig(), st)
		runner := protocol.NewRunner(client,
			protocol.WithReporter(cfg.Analysis.Reporter),
			protocol.WithStageDelay(time.Duration(cfg.Analysis.StageDelayMs)*time.Millisecond),
		)

		result, err := runner.Run(ctx, assignment, yearRange(analyzeFromYear, analyzeToYear))
		if err != nil {
			return eris.Wrap(err, "collection protocol")
		}

		out := analyzeOutput{
			SearchID:       search.ID,
			Classification: c,
			Assignment:     assignment,
			Result:         result,
		}

		if cfg.Analysis.NarrativeOnSave {
			narrative, err := classifier.Summarize(ctx, c.CommodityName, result.Analysis)
			if err != nil {
				zap.L().Warn("narrative generation failed", zap.Error(err))
			} else {
				out.Narrative = narrative
			}
		}

		summaryJSON, err := json.Marshal(result.Analysis)
		if err != nil {
			return eris.Wrap(err, "marshal analysis summary")
		}
		rec := &model.AnalysisRecord{
			ID:           uuid.NewString(),
			Commodity:    c.CommodityName,
			RawCode:      assignment.Raw,
			SemiCode:     assignment.Semi,
			FinishedCode: assignment.Finished,
			Summary:      summaryJSON,
			Narrative:    out.Narrative,
			CreatedAt:    time.Now().UTC(),
		}
		if err := st.SaveAnalysis(ctx, rec); err != nil {
			zap.L().Warn("save analysis failed", zap.Error(err))
		}

		zap.L().Info("analysis complete",
			zap.String("commodity", c.CommodityName),
			zap.String("decision", result.Analysis.Verdict.Decision),
			zap.Float64("market_gap", result.Analysis.MarketGap),
			zap.Ints("aligned_years", result.Analysis.Alignment.AlignedYears),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

// storedClassification returns the classification from the most recent
// saved search for the same input, or nil when absent, unusable, or
// reclassification was requested.
func storedClassification(ctx context.Context, st store.Store, input string) *model.Classification {
	if analyzeReclassify {
		return nil
	}
	prev, err := st.GetSearch(ctx, input)
	if err != nil {
		zap.L().Warn("search lookup failed", zap.Error(err))
		return nil
	}
	if prev == nil || len(prev.Classification) == 0 {
		return nil
	}
	var c model.Classification
	if err := json.Unmarshal(prev.Classification, &c); err != nil {
		zap.L().Warn("stored classification unreadable, reclassifying",
			zap.String("search_id", prev.ID), zap.Error(err))
		return nil
	}
	zap.L().Info("reusing stored classification",
		zap.String("search_id", prev.ID),
		zap.String("commodity", c.CommodityName),
	)
	return &c
}

func init() {
	analyzeCmd.Flags().IntVar(&analyzeFromYear, "from", 0, "first year of the analysis window")
	analyzeCmd.Flags().IntVar(&analyzeToYear, "to", 0, "last year of the analysis window")
	analyzeCmd.Flags().BoolVar(&analyzeReclassify, "reclassify", false, "ignore any stored classification for this input")
	rootCmd.AddCommand(analyzeCmd)
}
