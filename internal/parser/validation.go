package parser

import (
	"fmt"
	"strings"

	"github.com/harrison/grader/internal/models"
)

// rawModule mirrors the rules layout with pointers so that a missing key
// can be told apart from an empty one.
type rawModule struct {
	Exercise *[]rawExercise `toml:"exercise" yaml:"exercise"`
}

type rawExercise struct {
	Name *string    `toml:"name" yaml:"name"`
	Test *[]rawTest `toml:"test" yaml:"test"`
}

type rawTest struct {
	TestName *string   `toml:"test_name" yaml:"test_name"`
	Input    *[]string `toml:"input" yaml:"input"`
	Output   *[]string `toml:"output" yaml:"output"`
}

// toModule validates raw and converts it. It returns the first problem found.
func (raw *rawModule) toModule() (*models.Module, error) {
	if raw.Exercise == nil {
		return nil, models.NewConfigError("exercise", "is required", nil)
	}

	module := &models.Module{Exercises: make([]models.Exercise, 0, len(*raw.Exercise))}
	for i, rex := range *raw.Exercise {
		field := fmt.Sprintf("exercise[%d]", i)
		if rex.Name == nil {
			return nil, models.NewConfigError(field+".name", "is required", nil)
		}
		if strings.TrimSpace(*rex.Name) == "" {
			return nil, models.NewConfigError(field+".name", "must not be empty", nil)
		}
		if rex.Test == nil {
			return nil, models.NewConfigError(field+".test", "is required", nil)
		}

		exercise := models.Exercise{Name: *rex.Name, Tests: make([]models.Test, 0, len(*rex.Test))}
		for j, rt := range *rex.Test {
			testField := fmt.Sprintf("%s.test[%d]", field, j)
			if rt.TestName == nil {
				return nil, models.NewConfigError(testField+".test_name", "is required", nil)
			}
			if strings.TrimSpace(*rt.TestName) == "" {
				return nil, models.NewConfigError(testField+".test_name", "must not be empty", nil)
			}
			if rt.Input == nil {
				return nil, models.NewConfigError(testField+".input", "is required", nil)
			}
			if rt.Output == nil {
				return nil, models.NewConfigError(testField+".output", "is required", nil)
			}
			exercise.Tests = append(exercise.Tests, models.Test{
				Name:   *rt.TestName,
				Input:  append([]string{}, (*rt.Input)...),
				Output: append([]string{}, (*rt.Output)...),
			})
		}
		module.Exercises = append(module.Exercises, exercise)
	}

	return module, nil
}

// ValidateModule checks an already-built module against the same rules the
// decoders enforce. It is used for modules assembled outside the parsers.
func ValidateModule(m *models.Module) error {
	if m == nil {
		return models.NewConfigError("exercise", "is required", nil)
	}
	for i, ex := range m.Exercises {
		field := fmt.Sprintf("exercise[%d]", i)
		if strings.TrimSpace(ex.Name) == "" {
			return models.NewConfigError(field+".name", "must not be empty", nil)
		}
		for j, t := range ex.Tests {
			testField := fmt.Sprintf("%s.test[%d]", field, j)
			if strings.TrimSpace(t.Name) == "" {
				return models.NewConfigError(testField+".test_name", "must not be empty", nil)
			}
			if t.Input == nil {
				return models.NewConfigError(testField+".input", "is required", nil)
			}
			if t.Output == nil {
				return models.NewConfigError(testField+".output", "is required", nil)
			}
		}
	}
	return nil
}

// DuplicateExercises returns exercise names declared more than once, in
// order of their second appearance. Duplicates are legal; validate reports them.
func DuplicateExercises(m *models.Module) []string {
	seen := make(map[string]bool)
	var dups []string
	for _, ex := range m.Exercises {
		if seen[ex.Name] {
			dups = append(dups, ex.Name)
			continue
		}
		seen[ex.Name] = true
	}
	return dups
}
