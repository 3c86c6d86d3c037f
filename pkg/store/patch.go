package store

// Field holds one attribute of a partial entity value. The zero value is
// absent; a present field always carries a value, including zero values.
type Field[V any] struct {
	value   V
	present bool
}

// Set returns a present field holding v.
func Set[V any](v V) Field[V] {
	return Field[V]{value: v, present: true}
}

// Absent returns a field that carries no value.
func Absent[V any]() Field[V] {
	return Field[V]{}
}

// FromPtr maps a nil pointer to an absent field and anything else to a
// present field holding the pointed-to value.
func FromPtr[V any](p *V) Field[V] {
	if p == nil {
		return Field[V]{}
	}
	return Set(*p)
}

// Get returns the value and whether it is present.
func (f Field[V]) Get() (V, bool) {
	return f.value, f.present
}

// IsPresent reports whether the field carries a value.
func (f Field[V]) IsPresent() bool {
	return f.present
}

// OrElse returns the value when present and def otherwise.
func (f Field[V]) OrElse(def V) V {
	if f.present {
		return f.value
	}
	return def
}

// Attribute is the present/absent view of a single column.
type Attribute struct {
	Name    string
	Value   any
	Present bool
}

// Attr builds the attribute view of a field.
func Attr[V any](name string, f Field[V]) Attribute {
	v, ok := f.Get()
	if !ok {
		return Attribute{Name: name}
	}
	return Attribute{Name: name, Value: v, Present: true}
}

// Partial is implemented by entity-shaped values whose attributes are
// independently present or absent.
type Partial interface {
	Attributes() []Attribute
}

// Assignments maps column names to the values an update writes.
type Assignments map[string]any

// BuildAssignments returns exactly the present attributes of p. The
// identifier column is never included, even when present.
func BuildAssignments(idColumn string, p Partial) Assignments {
	assignments := make(Assignments)
	for _, attr := range p.Attributes() {
		if !attr.Present || attr.Name == idColumn {
			continue
		}
		assignments[attr.Name] = attr.Value
	}
	return assignments
}
