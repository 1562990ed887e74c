package hscode

import (
	"go.uber.org/zap"

	"github.com/exportdss/downstream-cli/internal/model"
)

// ExtractCodes cleans the classifier's candidate codes for one stage,
// preserving preference order and dropping duplicates and unparseable
// entries. Descriptions follow their code through cleaning.
func ExtractCodes(c *model.Classification, stage model.Stage) []model.CodeCandidate {
	raw := c.Candidates(stage)
	if len(raw) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(raw))
	out := make([]model.CodeCandidate, 0, len(raw))
	for _, cand := range raw {
		cleaned, ok := CleanCode(cand.Code)
		if !ok || seen[cleaned] {
			continue
		}
		seen[cleaned] = true
		out = append(out, model.CodeCandidate{Code: cleaned, Description: cand.Description})
		zap.L().Debug("cleaned candidate code",
			zap.String("stage", string(stage)),
			zap.String("raw", cand.Code),
			zap.String("cleaned", cleaned),
		)
	}
	return out
}

// Describe returns the classifier's description for a cleaned code within a
// stage, or "N/A" when the code is unknown.
func Describe(c *model.Classification, stage model.Stage, code string) string {
	for _, cand := range c.Candidates(stage) {
		if cleaned, ok := CleanCode(cand.Code); ok && cleaned == code {
			if cand.Description != "" {
				return cand.Description
			}
			break
		}
	}
	return "N/A"
}
