package domain

import "errors"

// FilterCriterion selects the visible subset of the task collection.
type FilterCriterion string

const (
	FilterAll    FilterCriterion = "all"
	FilterLow    FilterCriterion = "low"
	FilterMedium FilterCriterion = "medium"
	FilterHigh   FilterCriterion = "high"
)

var ErrInvalidFilter = errors.New("unknown filter criterion")

func ParseFilter(s string) (FilterCriterion, error) {
	switch FilterCriterion(s) {
	case FilterAll, FilterLow, FilterMedium, FilterHigh:
		return FilterCriterion(s), nil
	default:
		return "", ErrInvalidFilter
	}
}

// FilterByPriority returns the tasks matching the criterion, preserving the
// order of the source collection. FilterAll returns the input unchanged.
func FilterByPriority(tasks []Task, c FilterCriterion) []Task {
	if c == FilterAll {
		return tasks
	}

	var out []Task
	for _, t := range tasks {
		if t.Priority == Priority(c) {
			out = append(out, t)
		}
	}
	return out
}
