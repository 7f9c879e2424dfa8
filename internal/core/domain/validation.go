package domain

import "strings"

// ValidationError describes a single malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

// ValidationErrors is the full set of problems found in one payload.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}
