package feature

// Vector is an ordered mapping from feature name to numeric value.
// Insertion order is preserved and is significant: the classifier consumes
// values positionally, and the name at position i documents what that
// position means.
//
// Design decision: We carry both a name slice and a value map instead of a
// plain []float64 because every producer and consumer in the pipeline needs
// names attached (order validation, explainability, CSV headers). No
// third-party ordered-map dependency is warranted for this access pattern.
type Vector struct {
	names  []string
	values map[string]float64
}

// NewVector creates an empty Vector.
func NewVector() *Vector {
	return &Vector{
		names:  make([]string, 0, 32),
		values: make(map[string]float64, 32),
	}
}

// Set assigns a value to a feature name. The first Set of a name appends it
// to the order; later Sets overwrite the value without moving the name.
func (v *Vector) Set(name string, value float64) {
	if _, ok := v.values[name]; !ok {
		v.names = append(v.names, name)
	}
	v.values[name] = value
}

// Get returns the value for a feature name and whether it is present.
func (v *Vector) Get(name string) (float64, bool) {
	val, ok := v.values[name]
	return val, ok
}

// Len returns the number of features in the vector.
func (v *Vector) Len() int {
	return len(v.names)
}

// Names returns the feature names in insertion order.
// The returned slice is a copy; mutating it does not affect the vector.
func (v *Vector) Names() []string {
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

// Values returns the feature values in insertion order.
func (v *Vector) Values() []float64 {
	out := make([]float64, len(v.names))
	for i, n := range v.names {
		out[i] = v.values[n]
	}
	return out
}

// ValuesInOrder returns the values arranged to match the given name order.
// A name absent from the vector yields 0. This is the bridge between a
// freshly extracted vector and a classifier trained on a stored name list.
func (v *Vector) ValuesInOrder(names []string) []float64 {
	out := make([]float64, len(names))
	for i, n := range names {
		out[i] = v.values[n] // missing names default to 0
	}
	return out
}

// Merge appends every feature of other to v, preserving other's order.
// Duplicate names keep their original position in v and take other's value.
func (v *Vector) Merge(other *Vector) {
	for _, n := range other.names {
		v.Set(n, other.values[n])
	}
}

// Optional is a numeric value that may be unknown. The domain extractor
// uses it to keep "we could not measure this" distinct from "we measured
// zero"; collapsing the two would destroy the signal that a lookup failed.
type Optional struct {
	// Value is meaningful only when Valid is true.
	Value float64

	// Valid is false when the value is unknown.
	Valid bool
}

// Known wraps a measured value.
func Known(v float64) Optional {
	return Optional{Value: v, Valid: true}
}

// Unknown is the absent value.
var Unknown = Optional{}

// Or returns the value when known, otherwise the fallback.
// The merge boundary uses Or(0) to impute unknowns for the model.
func (o Optional) Or(fallback float64) float64 {
	if o.Valid {
		return o.Value
	}
	return fallback
}
