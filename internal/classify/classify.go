package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/exportdss/downstream-cli/internal/model"
	"github.com/exportdss/downstream-cli/pkg/anthropic"
)

const (
	// DefaultClassifyModel handles commodity classification. Haiku is
	// sufficient for structured extraction and keeps per-search cost low.
	DefaultClassifyModel = "claude-haiku-4-5-20251001"

	// DefaultSummaryModel writes the narrative summary.
	DefaultSummaryModel = "claude-sonnet-4-5-20250929"

	classifyMaxTokens = 2048
	summaryMaxTokens  = 1500
)

// Classifier turns free-form commodity input into a processing chain with
// candidate HS codes, and renders analysis results as narrative text.
type Classifier struct {
	ai            anthropic.Client
	classifyModel string
	summaryModel  string
}

// Option adjusts Classifier construction.
type Option func(*Classifier)

// WithClassifyModel overrides the classification model.
func WithClassifyModel(m string) Option {
	return func(c *Classifier) { c.classifyModel = m }
}

// WithSummaryModel overrides the narrative summary model.
func WithSummaryModel(m string) Option {
	return func(c *Classifier) { c.summaryModel = m }
}

// New builds a Classifier around the given Anthropic client.
func New(ai anthropic.Client, opts ...Option) *Classifier {
	c := &Classifier{
		ai:            ai,
		classifyModel: DefaultClassifyModel,
		summaryModel:  DefaultSummaryModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

const classifySystem = `You are an export-economics strategy consultant for Indonesia and an
expert in UN Comtrade HS (Harmonized System) code classification.`

const classifyPromptTemplate = `User input: %q

Instructions:
1. Detect the processing stage of the user's input: raw material, semi-processed, or finished product.
2. Understand the exact material the user means. Do not jump to a different part or product of the same commodity (coconut shell is not coconut flesh, banana leaf is not banana fruit).
3. Identify a COHERENT transformation path: the semi-processed and finished products must be direct processing results of the input material, not separate products.
4. Among coherent paths, pick the one that is realistic and commonly practiced, considering existing Indonesian industry and traditional use.
5. Always give the full chain raw -> semi-processed -> finished, even when the user's input sits mid-chain.
6. Provide accurate UN Comtrade HS codes for every stage. Codes may use any format ("0801.12", "08.01", "080112", "1513.11.00"); they are cleaned automatically. Give at least two alternative codes per stage with short descriptions. Prefer codes matching the product's physical form and actual trade use over chemical composition.

Respond with JSON only, using exactly this structure:
{
    "commodity_name": "generic commodity category in English",
    "input_stage": "raw/semi/finished",
    "raw_material": "raw material description in English",
    "semi_finished": "semi-processed product description in English",
    "finished_product": "finished product description in English",
    "keywords": ["keyword1", "keyword2"],
    "raw_hs_codes": [{"code": "0801.12", "description": "Coconuts, in the inner shell"}],
    "semi_hs_codes": [{"code": "1513.11", "description": "Coconut (copra) oil, crude"}],
    "finished_hs_codes": [{"code": "3401.11", "description": "Soap, for toilet use"}],
    "industry_category": "agriculture/mining/manufacturing",
    "selected_path_reason": "one or two sentences on why this path",
    "user_position_note": "note on where the input sits in the chain, or null if raw"
}`

// Classify extracts the commodity chain and HS code candidates for the
// given input. A transport or API failure returns an error; a response
// that is not valid JSON degrades to a deterministic fallback built from
// the input text, so downstream validation decides whether to proceed.
func (c *Classifier) Classify(ctx context.Context, input string) (*model.Classification, error) {
	resp, err := c.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     c.classifyModel,
		MaxTokens: classifyMaxTokens,
		System:    classifySystem,
		Messages: []anthropic.Message{{
			Role:    "user",
			Content: fmt.Sprintf(classifyPromptTemplate, input),
		}},
	})
	if err != nil {
		return nil, eris.Wrap(err, "classify: create message")
	}

	cleaned := cleanJSONFromText(resp.Text())
	var result model.Classification
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		zap.L().Warn("classifier returned malformed JSON, using fallback",
			zap.String("input", input),
			zap.Error(err))
		return model.DegenerateClassification(input), nil
	}

	zap.L().Info("classified commodity",
		zap.String("input", input),
		zap.String("commodity", result.CommodityName),
		zap.String("input_stage", string(result.InputStage)),
		zap.Int("raw_candidates", len(result.RawCodes)),
		zap.Int("semi_candidates", len(result.SemiCodes)),
		zap.Int("finished_candidates", len(result.FinishedCodes)))
	return &result, nil
}

const summaryPromptTemplate = `You are an Indonesian export economics analyst. Write a downstreaming
analysis summary for the commodity below.

COMMODITY: %s

RAW MATERIAL (Indonesian exports):
- Total value: %s
- Growth trend (CAGR): %.2f%%

FINISHED PRODUCT:
- Indonesian exports: %s
- World import demand: %s
- Market gap: %s
- Growth trend (CAGR): %.2f%%

RECOMMENDATION: %s
MAIN REASON: %s

Write three to four paragraphs covering the current raw-material export
position, global demand for the finished product, the value-add potential
of downstreaming, and a strategic recommendation. Professional tone,
readable for business decision makers.`

var usdPrinter = message.NewPrinter(language.English)

// usd renders a dollar amount with digit grouping. The totals run into the
// billions, and ungrouped figures read badly in the prompt and narrative.
func usd(v float64) string {
	return usdPrinter.Sprintf("$%.2f", v)
}

// Summarize renders the analysis numbers as a narrative for the end user.
func (c *Classifier) Summarize(ctx context.Context, commodity string, s model.AnalysisSummary) (string, error) {
	prompt := fmt.Sprintf(summaryPromptTemplate,
		commodity,
		usd(s.Raw.TotalValue), s.Raw.CAGRPct,
		usd(s.Finished.TotalValue), usd(s.GlobalDemand.TotalValue),
		usd(s.MarketGap), s.GlobalDemand.CAGRPct,
		s.Verdict.Decision, s.Verdict.Reason,
	)

	resp, err := c.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     c.summaryModel,
		MaxTokens: summaryMaxTokens,
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", eris.Wrap(err, "classify: summary message")
	}
	return strings.TrimSpace(resp.Text()), nil
}

// cleanJSONFromText strips markdown fences and surrounding prose so the
// remainder parses as a JSON object.
func cleanJSONFromText(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
