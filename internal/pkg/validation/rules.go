package validation

import (
	"regexp"
)

// Validation rule limits
var (
	PersonNameMaxLength    = 100
	InstituteNameMaxLength = 64
	EmailMaxLength         = 254
	CourseIDMaxLength      = 64
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	Name     *regexp.Regexp
	CourseID *regexp.Regexp
}{
	// starts with a letter, digit or combining mark; never contains '|' or '%'
	Name:     regexp.MustCompile(`^[\p{L}\p{N}\p{M}][^|%]*$`),
	CourseID: regexp.MustCompile(`^[\w.$-]+$`),
}

// StringValidation is a reusable length/pattern rule
type StringValidation struct {
	Value    string
	MaxLen   int
	Required bool
	Pattern  *regexp.Regexp
}

// Failure describes why a StringValidation rejected its value
type Failure string

const (
	FailureNone    Failure = ""
	FailureEmpty   Failure = "is empty"
	FailureTooLong Failure = "is too long"
	FailurePattern Failure = "contains invalid characters or starts with a non-alphanumeric character"
)

// NewStringValidation creates a new required string validation
func NewStringValidation(value string) *StringValidation {
	return &StringValidation{
		Value:    value,
		Required: true,
	}
}

// WithMaxLength sets maximum length
func (v *StringValidation) WithMaxLength(max int) *StringValidation {
	v.MaxLen = max
	return v
}

// WithPattern sets regex pattern
func (v *StringValidation) WithPattern(pattern *regexp.Regexp) *StringValidation {
	v.Pattern = pattern
	return v
}

// WithRequired sets if field is required
func (v *StringValidation) WithRequired(required bool) *StringValidation {
	v.Required = required
	return v
}

// Check returns the first failing rule, or FailureNone
func (v *StringValidation) Check() Failure {
	if v.Value == "" {
		if v.Required {
			return FailureEmpty
		}
		return FailureNone
	}

	if v.MaxLen > 0 && len([]rune(v.Value)) > v.MaxLen {
		return FailureTooLong
	}

	if v.Pattern != nil && !v.Pattern.MatchString(v.Value) {
		return FailurePattern
	}

	return FailureNone
}

// Validate reports whether every rule passes
func (v *StringValidation) Validate() bool {
	return v.Check() == FailureNone
}
