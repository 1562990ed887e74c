package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/exportdss/downstream-cli/internal/classify"
	"github.com/exportdss/downstream-cli/internal/hscode"
	"github.com/exportdss/downstream-cli/internal/model"
	"github.com/exportdss/downstream-cli/pkg/anthropic"
)

type resolvedCode struct {
	Stage       string `json:"stage"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

type classifyOutput struct {
	Classification *model.Classification `json:"classification"`
	Assignment     model.StageAssignment `json:"assignment"`
	Resolved       []resolvedCode        `json:"resolved_codes"`
}

var classifyCmd = &cobra.Command{
	Use:   "classify <commodity>",
	Short: "Classify a commodity into its processing chain and HS codes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		input := strings.Join(args, " ")

		if err := cfg.Validate("classify"); err != nil {
			return err
		}

		ai := anthropic.NewClient(cfg.Anthropic.Key)
		classifier := classify.New(ai,
			classify.WithClassifyModel(cfg.Anthropic.ClassifyModel),
			classify.WithSummaryModel(cfg.Anthropic.SummaryModel),
		)

		c, err := classifier.Classify(ctx, input)
		if err != nil {
			return eris.Wrap(err, "classify commodity")
		}

		assignment := hscode.ResolveClassification(c)
		out := classifyOutput{
			Classification: c,
			Assignment:     assignment,
		}
		for _, stage := range model.Stages {
			code := assignment.Code(stage)
			if code == "" {
				continue
			}
			out.Resolved = append(out.Resolved, resolvedCode{
				Stage:       string(stage),
				Code:        code,
				Description: hscode.Describe(c, stage, code),
			})
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}
