package schema

import (
	"errors"
	"fmt"

	"github.com/rocjay1/ledger-entry/internal/models"
)

// Errors returned by Build for a malformed table.
var (
	// ErrEmptySchema means a selectable kind lists no fields.
	ErrEmptySchema = errors.New("kind has no fields")
	// ErrUnknownField means a listed field has no rendering rule in models.
	ErrUnknownField = errors.New("field has no rendering rule")
	// ErrHiddenRequire means a required field is hidden or not listed.
	ErrHiddenRequire = errors.New("required field is not visible")
)

// Registry maps every kind to its schema.
type Registry struct {
	entries []FieldSchema
}

// Build validates entries and returns a registry over them. entries is indexed by models.Kind and
// must cover every selectable kind.
func Build(entries []FieldSchema) (*Registry, error) {
	if len(entries) != int(models.NumKinds) {
		return nil, fmt.Errorf("schema table has %d entries, want %d", len(entries), models.NumKinds)
	}
	for _, k := range models.Kinds() {
		if err := check(entries[k]); err != nil {
			return nil, fmt.Errorf("invalid schema for %s: %w", k, err)
		}
	}
	out := make([]FieldSchema, len(entries))
	copy(out, entries)
	return &Registry{entries: out}, nil
}

func check(fs FieldSchema) error {
	if len(fs.Fields) == 0 {
		return ErrEmptySchema
	}
	for _, set := range []FieldSet{fs.Fields, fs.Required, fs.Hidden} {
		for f := range set {
			if _, ok := models.RuleFor(f); !ok {
				return fmt.Errorf("%w: %q", ErrUnknownField, f)
			}
		}
	}
	for f := range fs.Required {
		if !fs.Visible(f) {
			return fmt.Errorf("%w: %s", ErrHiddenRequire, f)
		}
	}
	return nil
}

// For returns the schema of k. It panics when k is not a selectable kind.
func (r *Registry) For(k models.Kind) FieldSchema {
	if !k.Valid() {
		panic(fmt.Sprintf("schema: no entry for kind %d", uint8(k)))
	}
	return r.entries[k]
}

// IsVisible reports whether f is shown for k.
func (r *Registry) IsVisible(f models.FieldName, k models.Kind) bool {
	return r.For(k).Visible(f)
}

// IsRequired reports whether f must be filled for k.
func (r *Registry) IsRequired(f models.FieldName, k models.Kind) bool {
	return r.For(k).Required.Contains(f)
}

// HasBehavior reports whether k opts into b.
func (r *Registry) HasBehavior(b Behavior, k models.Kind) bool {
	return r.For(k).Behaviors.Has(b)
}

// VisibleFields returns the fields to present for k, in form order.
func (r *Registry) VisibleFields(k models.Kind) []models.FieldName {
	fs := r.For(k)
	out := make([]models.FieldName, 0, len(fs.Fields))
	for _, f := range fs.Fields.Ordered() {
		if fs.Visible(f) {
			out = append(out, f)
		}
	}
	return out
}

// RequiredFields returns the required fields of k, in form order.
func (r *Registry) RequiredFields(k models.Kind) []models.FieldName {
	return r.For(k).Required.Ordered()
}

var defaultRegistry = mustBuild()

func mustBuild() *Registry {
	r, err := Build(table[:])
	if err != nil {
		panic("schema: " + err.Error())
	}
	return r
}

// Default returns the registry built from the built-in kind table.
func Default() *Registry { return defaultRegistry }

// For returns the built-in schema of k.
func For(k models.Kind) FieldSchema { return defaultRegistry.For(k) }

// IsVisible reports whether f is shown for k in the built-in table.
func IsVisible(f models.FieldName, k models.Kind) bool { return defaultRegistry.IsVisible(f, k) }

// IsRequired reports whether f is required for k in the built-in table.
func IsRequired(f models.FieldName, k models.Kind) bool { return defaultRegistry.IsRequired(f, k) }

// HasBehavior reports whether k has b in the built-in table.
func HasBehavior(b Behavior, k models.Kind) bool { return defaultRegistry.HasBehavior(b, k) }

// VisibleFields lists the built-in visible fields of k in form order.
func VisibleFields(k models.Kind) []models.FieldName { return defaultRegistry.VisibleFields(k) }

// RequiredFields lists the built-in required fields of k in form order.
func RequiredFields(k models.Kind) []models.FieldName { return defaultRegistry.RequiredFields(k) }
