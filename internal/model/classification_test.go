package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassificationCandidates(t *testing.T) {
	c := &Classification{
		RawCodes:      []CodeCandidate{{Code: "0801.12"}},
		SemiCodes:     []CodeCandidate{{Code: "1513.11"}},
		FinishedCodes: []CodeCandidate{{Code: "3401.11"}},
	}

	assert.Equal(t, "0801.12", c.Candidates(StageRaw)[0].Code)
	assert.Equal(t, "1513.11", c.Candidates(StageSemi)[0].Code)
	assert.Equal(t, "3401.11", c.Candidates(StageFinished)[0].Code)
	assert.Nil(t, c.Candidates(Stage("bogus")))
}

func TestDegenerateClassification(t *testing.T) {
	c := DegenerateClassification("kelapa")

	assert.Equal(t, "kelapa", c.CommodityName)
	assert.Equal(t, StageRaw, c.InputStage)
	assert.Equal(t, "kelapa", c.RawMaterial)
	assert.Empty(t, c.RawCodes)
	assert.Empty(t, c.SemiCodes)
	assert.Empty(t, c.FinishedCodes)
	assert.Equal(t, []string{"kelapa"}, c.Keywords)
}

func TestStageAssignmentCode(t *testing.T) {
	a := StageAssignment{Raw: "080112", Semi: "151311", Finished: "340111"}

	assert.Equal(t, "080112", a.Code(StageRaw))
	assert.Equal(t, "151311", a.Code(StageSemi))
	assert.Equal(t, "340111", a.Code(StageFinished))
	assert.Equal(t, "", a.Code(Stage("other")))
}
