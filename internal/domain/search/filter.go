package search

// Occurrence tells how a filter contributes to the result
type Occurrence int

const (
	Must Occurrence = iota
	Should
	MustNot
)

// Mode is the text matching mode of term filters
type Mode int

const (
	ExactMatch Mode = iota
	StartsWith
	Contains
)

// Filter is a single criterion of a search query
type Filter interface {
	FieldName() string
	Occurrence() Occurrence
}

// AttributeFilter matches a field against a single term or a slice of terms
type AttributeFilter struct {
	Field string
	Term  any
	Mode  Mode
	Occur Occurrence
	Boost float64
}

// FieldName implements Filter
func (f *AttributeFilter) FieldName() string { return f.Field }

// Occurrence implements Filter
func (f *AttributeFilter) Occurrence() Occurrence { return f.Occur }

// Attribute returns the attribute part of the filter
func (f *AttributeFilter) Attribute() *AttributeFilter { return f }

// Mandatory marks the filter as required
func (f *AttributeFilter) Mandatory() *AttributeFilter {
	f.Occur = Must
	return f
}

// Optional marks the filter as optional
func (f *AttributeFilter) Optional() *AttributeFilter {
	f.Occur = Should
	return f
}

// Negated excludes matches of the filter
func (f *AttributeFilter) Negated() *AttributeFilter {
	f.Occur = MustNot
	return f
}

// WithMode sets the matching mode
func (f *AttributeFilter) WithMode(mode Mode) *AttributeFilter {
	f.Mode = mode
	return f
}

// RangeFilter matches a field between Term and UpperTerm. A nil bound is open.
type RangeFilter struct {
	AttributeFilter
	UpperTerm     any
	IncludesLower bool
	IncludesUpper bool
}

// CombinedFilter groups filters; term filters inside are OR-combined
type CombinedFilter struct {
	Filters []Filter
}

// FieldName returns the field of the first child filter
func (f *CombinedFilter) FieldName() string {
	if len(f.Filters) == 0 {
		return ""
	}
	return f.Filters[0].FieldName()
}

// Occurrence implements Filter
func (f *CombinedFilter) Occurrence() Occurrence { return Must }

// CategoryTreePathFilter matches products mapped to a category subtree
type CategoryTreePathFilter struct {
	TreePath     string
	CategoryID   int
	IncludeSelf  bool
	FeaturedOnly *bool
}

// FieldName implements Filter
func (f *CategoryTreePathFilter) FieldName() string { return "categorypath" }

// Occurrence implements Filter
func (f *CategoryTreePathFilter) Occurrence() Occurrence { return Must }

// AttributeSearchFilter is implemented by attribute and range filters
type AttributeSearchFilter interface {
	Filter
	Attribute() *AttributeFilter
}

// ByField creates a required exact-match filter
func ByField(field string, term any) *AttributeFilter {
	return &AttributeFilter{Field: field, Term: term, Mode: ExactMatch, Occur: Must, Boost: 1}
}

// ByRange creates a required range filter
func ByRange(field string, lower, upper any, includesLower, includesUpper bool) *RangeFilter {
	return &RangeFilter{
		AttributeFilter: AttributeFilter{Field: field, Term: lower, Mode: ExactMatch, Occur: Must, Boost: 1},
		UpperTerm:       upper,
		IncludesLower:   includesLower,
		IncludesUpper:   includesUpper,
	}
}

// Combined groups filters
func Combined(filters ...Filter) *CombinedFilter {
	return &CombinedFilter{Filters: filters}
}

// Terms returns the terms of type T carried by an attribute filter (scalar
// or slice term) or by the attribute children of a combined filter
func Terms[T any](f Filter) []T {
	switch v := f.(type) {
	case *CombinedFilter:
		var result []T
		for _, child := range v.Filters {
			if af, ok := child.(AttributeSearchFilter); ok {
				result = append(result, termsOf[T](af.Attribute().Term)...)
			}
		}
		return result
	case AttributeSearchFilter:
		return termsOf[T](v.Attribute().Term)
	}
	return nil
}

func termsOf[T any](term any) []T {
	switch t := term.(type) {
	case T:
		return []T{t}
	case []T:
		return t
	}
	return nil
}

// FindFilter returns the first filter with the given field name, looking
// into combined filters as well
func FindFilter(filters []Filter, name string) Filter {
	for _, f := range filters {
		if f.FieldName() == name {
			return f
		}
		if cf, ok := f.(*CombinedFilter); ok {
			if found := FindFilter(cf.Filters, name); found != nil {
				return found
			}
		}
	}
	return nil
}
