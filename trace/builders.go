package trace

// ArgBuilder provides a fluent interface for building ArgumentData, in the
// teacher's EventBuilder/BatchBuilder spirit (pkg/dcb/constructors.go).
type ArgBuilder struct {
	pairs []KeyValue
}

// NewArgs starts a new ArgBuilder.
func NewArgs() *ArgBuilder { return &ArgBuilder{} }

func (b *ArgBuilder) Int(key string, v int64) *ArgBuilder {
	b.pairs = append(b.pairs, KeyValue{Key: key, Value: IntValue(v)})
	return b
}

func (b *ArgBuilder) Float(key string, v float64) *ArgBuilder {
	b.pairs = append(b.pairs, KeyValue{Key: key, Value: FloatValue(v)})
	return b
}

func (b *ArgBuilder) Str(key, v string) *ArgBuilder {
	b.pairs = append(b.pairs, KeyValue{Key: key, Value: StringValue(v)})
	return b
}

// Build returns the finished ArgumentData.
func (b *ArgBuilder) Build() *ArgumentData {
	return NewArgumentData(b.pairs...)
}
