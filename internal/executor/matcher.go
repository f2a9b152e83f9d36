package executor

import "github.com/harrison/grader/internal/models"

// FindSolution returns the solution file whose name equals the exercise name.
//
// Names are compared exactly. If several files share the name, the first one
// in files wins; this is a tie-break, not an error.
func FindSolution(exercise string, files []models.SolutionFile) (models.SolutionFile, error) {
	for _, f := range files {
		if f.Name == exercise {
			return f, nil
		}
	}
	return models.SolutionFile{}, &models.ExerciseFileMissingError{Exercise: exercise}
}

// MissingSolutions lists, in declared order, exercises without a solution file.
func MissingSolutions(module *models.Module, files []models.SolutionFile) []string {
	var missing []string
	for _, ex := range module.Exercises {
		if _, err := FindSolution(ex.Name, files); err != nil {
			missing = append(missing, ex.Name)
		}
	}
	return missing
}

// UnusedSolutions lists files that no exercise refers to.
func UnusedSolutions(module *models.Module, files []models.SolutionFile) []string {
	declared := make(map[string]bool, len(module.Exercises))
	for _, ex := range module.Exercises {
		declared[ex.Name] = true
	}

	var unused []string
	for _, f := range files {
		if !declared[f.Name] {
			unused = append(unused, f.Name)
		}
	}
	return unused
}
