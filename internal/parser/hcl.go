package parser

import (
	"io"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/harrison/grader/internal/models"
)

// hclModule is the HCL layout:
//
//	exercise "add" {
//	  test "basic" {
//	    input  = ["1 2"]
//	    output = ["3"]
//	  }
//	}
type hclModule struct {
	Exercises []hclExercise `hcl:"exercise,block"`
}

type hclExercise struct {
	Name  string    `hcl:"name,label"`
	Tests []hclTest `hcl:"test,block"`
}

type hclTest struct {
	Name   string   `hcl:"name,label"`
	Input  []string `hcl:"input"`
	Output []string `hcl:"output"`
}

// HCLParser parses rules.hcl files
type HCLParser struct{}

// NewHCLParser creates a new HCL parser
func NewHCLParser() *HCLParser {
	return &HCLParser{}
}

// Parse decodes and validates HCL rules
func (p *HCLParser) Parse(r io.Reader) (*models.Module, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, models.NewConfigError("", "cannot read HCL", err)
	}

	var decoded hclModule
	// hclsimple picks native syntax from the .hcl suffix
	if err := hclsimple.Decode("rules.hcl", src, nil, &decoded); err != nil {
		return nil, models.NewConfigError("", "malformed HCL", err)
	}

	module := &models.Module{Exercises: make([]models.Exercise, 0, len(decoded.Exercises))}
	for _, ex := range decoded.Exercises {
		exercise := models.Exercise{Name: ex.Name, Tests: make([]models.Test, 0, len(ex.Tests))}
		for _, t := range ex.Tests {
			input := t.Input
			if input == nil {
				input = []string{}
			}
			output := t.Output
			if output == nil {
				output = []string{}
			}
			exercise.Tests = append(exercise.Tests, models.Test{Name: t.Name, Input: input, Output: output})
		}
		module.Exercises = append(module.Exercises, exercise)
	}

	if err := ValidateModule(module); err != nil {
		return nil, err
	}
	return module, nil
}
