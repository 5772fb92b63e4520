package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/cqdecomp/internal/cpq"
	"github.com/roach88/cqdecomp/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrNoEdges            = "E101" // at least one edge required
	ErrTooManyEdges       = "E102" // edge set exceeds ir.MaxEdges
	ErrEmptyVariable      = "E103" // empty source, target or free variable
	ErrInvalidLabel       = "E104" // label empty, reserved, or not printable as a CPQ atom
	ErrDuplicateEdge      = "E105" // same (source, label, target) twice
	ErrFreeVariableUnused = "E106" // free variable occurs in no edge
	ErrDuplicateFree      = "E107" // free variable listed twice
)

// ValidationError is one semantic problem in a query definition.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors collects every problem found in one definition.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks d without failing fast. Names are compared as given;
// Build normalizes them first.
func (d Definition) Validate() ValidationErrors {
	var errs ValidationErrors

	if len(d.Edges) == 0 {
		errs = append(errs, ValidationError{
			Field:   "edges",
			Message: "at least one edge is required",
			Code:    ErrNoEdges,
		})
	}
	if len(d.Edges) > ir.MaxEdges {
		errs = append(errs, ValidationError{
			Field:   "edges",
			Message: fmt.Sprintf("%d edges exceed the limit of %d", len(d.Edges), ir.MaxEdges),
			Code:    ErrTooManyEdges,
		})
	}

	seen := make(map[EdgeDef]int, len(d.Edges))
	vertices := make(map[string]bool)
	for i, e := range d.Edges {
		field := fmt.Sprintf("edges[%d]", i)
		if strings.TrimSpace(e.Source) == "" {
			errs = append(errs, ValidationError{Field: field + ".source", Message: "variable name is required", Code: ErrEmptyVariable})
		}
		if strings.TrimSpace(e.Target) == "" {
			errs = append(errs, ValidationError{Field: field + ".target", Message: "variable name is required", Code: ErrEmptyVariable})
		}
		if !cpq.ValidLabel(e.Label) {
			errs = append(errs, ValidationError{
				Field:   field + ".label",
				Message: fmt.Sprintf("invalid label %q: use letters, digits, '_', ':' or '-', and not \"id\"", e.Label),
				Code:    ErrInvalidLabel,
			})
		}
		if first, dup := seen[e]; dup {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicates edges[%d]", first),
				Code:    ErrDuplicateEdge,
			})
		} else {
			seen[e] = i
		}
		vertices[e.Source] = true
		vertices[e.Target] = true
	}

	listed := make(map[string]bool, len(d.Free))
	for i, f := range d.Free {
		field := fmt.Sprintf("free[%d]", i)
		switch {
		case strings.TrimSpace(f) == "":
			errs = append(errs, ValidationError{Field: field, Message: "variable name is required", Code: ErrEmptyVariable})
		case listed[f]:
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("%q listed twice", f), Code: ErrDuplicateFree})
		case !vertices[f]:
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("%q occurs in no edge", f), Code: ErrFreeVariableUnused})
		}
		listed[f] = true
	}

	return errs
}
