package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// FieldType is the value type of a custom field
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldCheckbox FieldType = "checkbox"
)

// Valid reports whether t is a known field type
func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldNumber, FieldCheckbox:
		return true
	}
	return false
}

// MaxFieldNameLength bounds custom field names
const MaxFieldNameLength = 50

// CustomField is a user-defined attribute definition
type CustomField struct {
	Name       string    `json:"name"`
	Type       FieldType `json:"type"`
	Order      int       `json:"order"`
	Sortable   bool      `json:"sortable"`
	Filterable bool      `json:"filterable"`
}

// NewCustomField returns a definition with the default sortable/filterable flags
func NewCustomField(name string, typ FieldType, order int) CustomField {
	return CustomField{Name: name, Type: typ, Order: order, Sortable: true, Filterable: true}
}

// Validate checks a single definition
func (f CustomField) Validate() error {
	n := utf8.RuneCountInString(strings.TrimSpace(f.Name))
	if n == 0 {
		return &ValidationError{Field: "name", Message: "field name is required"}
	}
	if utf8.RuneCountInString(f.Name) > MaxFieldNameLength {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("field name must be at most %d characters", MaxFieldNameLength)}
	}
	if !f.Type.Valid() {
		return &ValidationError{Field: "type", Message: fmt.Sprintf("invalid field type %q", f.Type)}
	}
	if f.Order < 0 {
		return &ValidationError{Field: "order", Message: "order must not be negative"}
	}
	return nil
}

// FieldSet is an ordered set of field definitions keyed by name
type FieldSet []CustomField

// Clone returns an independent copy
func (fs FieldSet) Clone() FieldSet {
	if fs == nil {
		return nil
	}
	out := make(FieldSet, len(fs))
	copy(out, fs)
	return out
}

// Sorted returns a copy ordered by Order, keeping input order for ties
func (fs FieldSet) Sorted() FieldSet {
	out := fs.Clone()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Normalize sorts the set and renumbers orders to 0..n-1
func (fs FieldSet) Normalize() FieldSet {
	out := fs.Sorted()
	for i := range out {
		out[i].Order = i
	}
	return out
}

// Lookup finds a definition by exact name
func (fs FieldSet) Lookup(name string) (CustomField, bool) {
	for _, f := range fs {
		if f.Name == name {
			return f, true
		}
	}
	return CustomField{}, false
}

// Validate checks every definition and rejects names that collide case-insensitively
func (fs FieldSet) Validate() error {
	seen := make(map[string]bool, len(fs))
	for _, f := range fs {
		if err := f.Validate(); err != nil {
			return err
		}
		key := strings.ToLower(f.Name)
		if seen[key] {
			return &ValidationError{Field: "name", Message: fmt.Sprintf("field %q already exists", f.Name)}
		}
		seen[key] = true
	}
	return nil
}

// FieldValue is the value of a custom field on one task.
// Exactly one of the payload fields is meaningful, selected by Kind.
type FieldValue struct {
	Kind     FieldType
	Text     string
	Number   float64
	Checkbox bool
}

// TextValue builds a text value
func TextValue(s string) FieldValue { return FieldValue{Kind: FieldText, Text: s} }

// NumberValue builds a number value
func NumberValue(n float64) FieldValue { return FieldValue{Kind: FieldNumber, Number: n} }

// CheckboxValue builds a checkbox value
func CheckboxValue(b bool) FieldValue { return FieldValue{Kind: FieldCheckbox, Checkbox: b} }

// DefaultValue returns the zero value for a field type
func DefaultValue(t FieldType) FieldValue {
	switch t {
	case FieldNumber:
		return NumberValue(0)
	case FieldCheckbox:
		return CheckboxValue(false)
	default:
		return TextValue("")
	}
}

// String returns the value's display and sort form
func (v FieldValue) String() string {
	switch v.Kind {
	case FieldNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case FieldCheckbox:
		return strconv.FormatBool(v.Checkbox)
	default:
		return v.Text
	}
}

// MarshalJSON encodes the value as a bare JSON string, number or bool
func (v FieldValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case FieldNumber:
		return json.Marshal(v.Number)
	case FieldCheckbox:
		return json.Marshal(v.Checkbox)
	default:
		return json.Marshal(v.Text)
	}
}

// UnmarshalJSON infers the kind from the JSON token type
func (v *FieldValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*v = TextValue("")
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = TextValue(s)
	case bytes.Equal(data, []byte("true")) || bytes.Equal(data, []byte("false")):
		*v = CheckboxValue(data[0] == 't')
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("custom field value must be a string, number or bool: %w", err)
		}
		*v = NumberValue(n)
	}
	return nil
}

// CheckValue validates a value against the definition it is written to
func CheckValue(def CustomField, v FieldValue) error {
	if v.Kind != def.Type {
		return &ValidationError{
			Field:   def.Name,
			Message: fmt.Sprintf("expected a %s value, got %s", def.Type, v.Kind),
		}
	}
	return nil
}

// ParseFieldValue converts user text into a value of the given type
func ParseFieldValue(t FieldType, raw string) (FieldValue, error) {
	switch t {
	case FieldNumber:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return FieldValue{}, &ValidationError{Message: fmt.Sprintf("%q is not a number", raw)}
		}
		return NumberValue(n), nil
	case FieldCheckbox:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return FieldValue{}, &ValidationError{Message: fmt.Sprintf("%q is not true or false", raw)}
		}
		return CheckboxValue(b), nil
	default:
		return TextValue(raw), nil
	}
}
