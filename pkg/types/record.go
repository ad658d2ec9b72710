package types

import "strings"

// Record is one row of the records table.
type Record struct {
	ID          int64  `json:"id" yaml:"id"`                   // Assigned by storage on insert, immutable.
	Title       string `json:"title" yaml:"title"`             // Mutable via update.
	Description string `json:"description" yaml:"description"` // Mutable via update.
}

// SearchField selects which record fields a substring search inspects.
type SearchField int

// Search fields. FieldEither matches when the title or the description
// contains the substring.
const (
	FieldTitle SearchField = iota + 1
	FieldDescription
	FieldEither
)

// String returns the CLI and log name of the field.
func (f SearchField) String() string {
	switch f {
	case FieldTitle:
		return "title"
	case FieldDescription:
		return "description"
	case FieldEither:
		return "either"
	default:
		return "unknown"
	}
}

// ParseSearchField maps a field name to a SearchField.
// Returns ErrInvalidField for anything other than title, description, or either.
func ParseSearchField(name string) (SearchField, error) {
	switch name {
	case "title":
		return FieldTitle, nil
	case "description":
		return FieldDescription, nil
	case "either", "all":
		return FieldEither, nil
	default:
		return 0, ErrInvalidField
	}
}

// Matches reports whether the record contains substr in the given field.
// Matching is case-sensitive; the empty substring matches every record.
func (r Record) Matches(field SearchField, substr string) bool {
	switch field {
	case FieldTitle:
		return strings.Contains(r.Title, substr)
	case FieldDescription:
		return strings.Contains(r.Description, substr)
	case FieldEither:
		return strings.Contains(r.Title, substr) || strings.Contains(r.Description, substr)
	default:
		return false
	}
}

// FilterRecords returns the records matching substr in field, preserving order.
// The result is never nil.
func FilterRecords(records []Record, field SearchField, substr string) []Record {
	out := []Record{}
	for _, r := range records {
		if r.Matches(field, substr) {
			out = append(out, r)
		}
	}
	return out
}
