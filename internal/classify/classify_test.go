package classify

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exportdss/downstream-cli/internal/model"
	"github.com/exportdss/downstream-cli/pkg/anthropic"
)

type fakeAI struct {
	reqs []anthropic.MessageRequest
	text string
	err  error
}

func (f *fakeAI) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: f.text}},
	}, nil
}

const coconutJSON = `{
	"commodity_name": "coconut",
	"input_stage": "raw",
	"raw_material": "Fresh coconuts",
	"semi_finished": "Crude coconut oil",
	"finished_product": "Toilet soap",
	"keywords": ["coconut", "copra"],
	"raw_hs_codes": [{"code": "0801.12", "description": "Coconuts, in the inner shell"}],
	"semi_hs_codes": [{"code": "1513.11", "description": "Coconut (copra) oil, crude"}],
	"finished_hs_codes": [{"code": "3401.11", "description": "Soap, for toilet use"}],
	"industry_category": "agriculture",
	"selected_path_reason": "Established soap industry."
}`

func TestClassifyParsesResponse(t *testing.T) {
	ai := &fakeAI{text: coconutJSON}
	c := New(ai)

	got, err := c.Classify(context.Background(), "kelapa")
	require.NoError(t, err)

	assert.Equal(t, "coconut", got.CommodityName)
	assert.Equal(t, model.StageRaw, got.InputStage)
	require.Len(t, got.RawCodes, 1)
	assert.Equal(t, "0801.12", got.RawCodes[0].Code)
	assert.Equal(t, "1513.11", got.SemiCodes[0].Code)
	assert.Equal(t, "3401.11", got.FinishedCodes[0].Code)

	require.Len(t, ai.reqs, 1)
	assert.Equal(t, DefaultClassifyModel, ai.reqs[0].Model)
	assert.Contains(t, ai.reqs[0].Messages[0].Content, `"kelapa"`)
}

func TestClassifyStripsMarkdownFences(t *testing.T) {
	ai := &fakeAI{text: "Here is the classification:\n```json\n" + coconutJSON + "\n```\nLet me know if you need more."}
	c := New(ai)

	got, err := c.Classify(context.Background(), "kelapa")
	require.NoError(t, err)
	assert.Equal(t, "coconut", got.CommodityName)
}

func TestClassifyMalformedJSONFallsBack(t *testing.T) {
	ai := &fakeAI{text: "I cannot produce JSON for this input."}
	c := New(ai)

	got, err := c.Classify(context.Background(), "obscure thing")
	require.NoError(t, err)

	assert.Equal(t, "obscure thing", got.CommodityName)
	assert.Equal(t, model.StageRaw, got.InputStage)
	assert.Empty(t, got.RawCodes)
	assert.Empty(t, got.FinishedCodes)
}

func TestClassifyPropagatesAPIError(t *testing.T) {
	ai := &fakeAI{err: eris.New("boom")}
	c := New(ai)

	_, err := c.Classify(context.Background(), "kelapa")
	require.Error(t, err)
}

func TestClassifyModelOverride(t *testing.T) {
	ai := &fakeAI{text: coconutJSON}
	c := New(ai, WithClassifyModel("test-model"))

	_, err := c.Classify(context.Background(), "kelapa")
	require.NoError(t, err)
	assert.Equal(t, "test-model", ai.reqs[0].Model)
}

func TestSummarizeIncludesFigures(t *testing.T) {
	ai := &fakeAI{text: "  Narrative summary.  "}
	c := New(ai)

	s := model.AnalysisSummary{
		Raw:          model.StageMetrics{TotalValue: 1000, CAGRPct: 5},
		Finished:     model.StageMetrics{TotalValue: 2000, CAGRPct: 8},
		GlobalDemand: model.StageMetrics{TotalValue: 1250000, CAGRPct: 3},
		MarketGap:    1248000,
		Verdict:      model.Verdict{Decision: "pursue", Reason: "gap"},
	}
	got, err := c.Summarize(context.Background(), "coconut", s)
	require.NoError(t, err)
	assert.Equal(t, "Narrative summary.", got)

	prompt := ai.reqs[0].Messages[0].Content
	assert.Contains(t, prompt, "coconut")
	assert.Contains(t, prompt, "$1,250,000.00", "dollar figures are digit-grouped")
	assert.Contains(t, prompt, "$1,248,000.00")
	assert.Contains(t, prompt, "pursue")
	assert.Equal(t, DefaultSummaryModel, ai.reqs[0].Model)
}

func TestCleanJSONFromText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding prose", "Sure:\n{\"a\":1}\nDone.", `{"a":1}`},
		{"no json", "nothing here", "nothing here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanJSONFromText(tt.in))
		})
	}
}
