package hscode

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/exportdss/downstream-cli/internal/model"
)

// ErrNoCandidateCode signals that the resolver could not bind a code to a
// mandatory stage (raw or finished). Callers must not proceed to fetch data.
var ErrNoCandidateCode = eris.New("hscode: no candidate code for mandatory stage")

// Resolve assigns one cleaned code to each stage, processing stages in fixed
// priority order raw → semi → finished. Within a stage the first candidate
// not already claimed by an earlier stage wins. When every candidate is
// claimed the stage falls back to its own first choice, accepting the
// duplicate. A stage with no candidates stays unassigned.
//
// The assignment is greedy and order-sensitive; ties resolve by input order
// alone.
func Resolve(candidates map[model.Stage][]model.CodeCandidate) model.StageAssignment {
	var assignment model.StageAssignment
	assigned := make(map[string]bool, len(model.Stages))

	for _, stage := range model.Stages {
		list := candidates[stage]
		if len(list) == 0 {
			continue
		}

		code := ""
		for _, cand := range list {
			if !assigned[cand.Code] {
				code = cand.Code
				break
			}
		}
		if code == "" {
			// Every alternative is taken; reuse the preferred code.
			code = list[0].Code
			zap.L().Warn("stage code conflict unresolved, reusing preferred code",
				zap.String("stage", string(stage)),
				zap.String("code", code),
			)
		}

		assigned[code] = true
		switch stage {
		case model.StageRaw:
			assignment.Raw = code
		case model.StageSemi:
			assignment.Semi = code
		case model.StageFinished:
			assignment.Finished = code
		}
	}

	return assignment
}

// ResolveClassification extracts and cleans the candidate lists from a
// classification, then resolves stage conflicts.
func ResolveClassification(c *model.Classification) model.StageAssignment {
	candidates := make(map[model.Stage][]model.CodeCandidate, len(model.Stages))
	for _, stage := range model.Stages {
		candidates[stage] = ExtractCodes(c, stage)
	}
	return Resolve(candidates)
}

// ValidateAssignment checks that both mandatory stages carry a code. The
// semi stage may legitimately be absent; the protocol substitutes an empty
// dataset for it.
func ValidateAssignment(a model.StageAssignment) error {
	if a.Raw == "" {
		return eris.Wrap(ErrNoCandidateCode, "raw stage")
	}
	if a.Finished == "" {
		return eris.Wrap(ErrNoCandidateCode, "finished stage")
	}
	return nil
}
