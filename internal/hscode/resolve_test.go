package hscode

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exportdss/downstream-cli/internal/model"
)

func cands(codes ...string) []model.CodeCandidate {
	out := make([]model.CodeCandidate, len(codes))
	for i, c := range codes {
		out[i] = model.CodeCandidate{Code: c}
	}
	return out
}

func TestResolveDistinctWhenAlternativesExist(t *testing.T) {
	// Semi's first choice collides with raw and falls to its second.
	a := Resolve(map[model.Stage][]model.CodeCandidate{
		model.StageRaw:      cands("080112", "080119"),
		model.StageSemi:     cands("080112", "151311"),
		model.StageFinished: cands("340111"),
	})

	assert.Equal(t, "080112", a.Raw)
	assert.Equal(t, "151311", a.Semi)
	assert.Equal(t, "340111", a.Finished)
}

func TestResolveFallbackDuplicateWhenExhausted(t *testing.T) {
	a := Resolve(map[model.Stage][]model.CodeCandidate{
		model.StageRaw:      cands("090411"),
		model.StageSemi:     cands("090411"),
		model.StageFinished: cands("090411", "330129"),
	})

	assert.Equal(t, "090411", a.Raw)
	assert.Equal(t, "090411", a.Semi, "exhausted stage reuses its preferred code")
	assert.Equal(t, "330129", a.Finished, "later stage still avoids the taken code")
}

func TestResolveMissingStage(t *testing.T) {
	a := Resolve(map[model.Stage][]model.CodeCandidate{
		model.StageRaw:      cands("080112"),
		model.StageFinished: cands("340111"),
	})

	assert.Equal(t, "080112", a.Raw)
	assert.Equal(t, "", a.Semi)
	assert.Equal(t, "340111", a.Finished)
}

func TestResolveClassification(t *testing.T) {
	c := &model.Classification{
		RawCodes: []model.CodeCandidate{
			{Code: "0801.12", Description: "Coconuts, in the inner shell"},
			{Code: "0801.19", Description: "Coconuts, other"},
		},
		SemiCodes: []model.CodeCandidate{
			{Code: "0801.12", Description: "collides with raw"},
			{Code: "1513.11", Description: "Coconut oil, crude"},
		},
		FinishedCodes: []model.CodeCandidate{
			{Code: "3401.11", Description: "Soap, toilet use"},
		},
	}

	a := ResolveClassification(c)
	assert.Equal(t, "080112", a.Raw)
	assert.Equal(t, "151311", a.Semi)
	assert.Equal(t, "340111", a.Finished)
}

func TestExtractCodesDedupes(t *testing.T) {
	c := &model.Classification{
		RawCodes: []model.CodeCandidate{
			{Code: "0801.12", Description: "first"},
			{Code: "080112", Description: "same after cleaning"},
			{Code: "abc", Description: "invalid"},
			{Code: "0801.19", Description: "second"},
		},
	}

	got := ExtractCodes(c, model.StageRaw)
	require.Len(t, got, 2)
	assert.Equal(t, "080112", got[0].Code)
	assert.Equal(t, "first", got[0].Description)
	assert.Equal(t, "080119", got[1].Code)
}

func TestDescribe(t *testing.T) {
	c := &model.Classification{
		FinishedCodes: []model.CodeCandidate{{Code: "3401.11", Description: "Soap"}},
	}

	assert.Equal(t, "Soap", Describe(c, model.StageFinished, "340111"))
	assert.Equal(t, "N/A", Describe(c, model.StageFinished, "999999"))
}

func TestValidateAssignment(t *testing.T) {
	err := ValidateAssignment(model.StageAssignment{Raw: "080112", Finished: "340111"})
	require.NoError(t, err)

	err = ValidateAssignment(model.StageAssignment{Finished: "340111"})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNoCandidateCode))

	err = ValidateAssignment(model.StageAssignment{Raw: "080112"})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNoCandidateCode))
}
