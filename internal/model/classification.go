package model

// Stage is a position in the raw → semi-finished → finished processing chain.
type Stage string

const (
	StageRaw      Stage = "raw"
	StageSemi     Stage = "semi"
	StageFinished Stage = "finished"
)

// Stages lists processing stages in protocol priority order.
var Stages = []Stage{StageRaw, StageSemi, StageFinished}

// CodeCandidate is one HS code proposed by the classifier for a stage,
// ordered by preference (first = most preferred).
type CodeCandidate struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// StageAssignment binds at most one cleaned HS code to each stage. An empty
// string means no code could be assigned for that stage.
type StageAssignment struct {
	Raw      string `json:"raw"`
	Semi     string `json:"semi"`
	Finished string `json:"finished"`
}

// Code returns the assigned code for the given stage.
func (a StageAssignment) Code(stage Stage) string {
	switch stage {
	case StageRaw:
		return a.Raw
	case StageSemi:
		return a.Semi
	case StageFinished:
		return a.Finished
	}
	return ""
}

// Classification is the validated output of the commodity classifier: a
// coherent processing chain with candidate HS codes per stage. Field names
// mirror the JSON schema the model is prompted to produce.
type Classification struct {
	CommodityName    string          `json:"commodity_name"`
	InputStage       Stage           `json:"input_stage"`
	RawMaterial      string          `json:"raw_material"`
	SemiFinished     string          `json:"semi_finished"`
	FinishedProduct  string          `json:"finished_product"`
	Keywords         []string        `json:"keywords"`
	RawCodes         []CodeCandidate `json:"raw_hs_codes"`
	SemiCodes        []CodeCandidate `json:"semi_hs_codes"`
	FinishedCodes    []CodeCandidate `json:"finished_hs_codes"`
	IndustryCategory string          `json:"industry_category"`
	PathReason       string          `json:"selected_path_reason"`
	PositionNote     string          `json:"user_position_note,omitempty"`
}

// Candidates returns the candidate list for the given stage.
func (c *Classification) Candidates(stage Stage) []CodeCandidate {
	switch stage {
	case StageRaw:
		return c.RawCodes
	case StageSemi:
		return c.SemiCodes
	case StageFinished:
		return c.FinishedCodes
	}
	return nil
}

// DegenerateClassification is the deterministic fallback substituted when
// the classifier returns malformed or missing output: the input text stands
// in for every chain position and all candidate lists are empty.
func DegenerateClassification(input string) *Classification {
	return &Classification{
		CommodityName:    input,
		InputStage:       StageRaw,
		RawMaterial:      input,
		SemiFinished:     input + " processed",
		FinishedProduct:  input + " finished",
		Keywords:         []string{input},
		IndustryCategory: "manufacturing",
		PathReason:       "Default path selected based on user input",
	}
}
