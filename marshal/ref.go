package marshal

// Ref carries a host value into a byRef or out parameter and receives the
// callee's update. Pass a *Ref where the schema declares the parameter
// by-reference; after the call Value holds what the native side wrote.
//
//	n := marshal.ByRef(int32(0))
//	_, err := b.Call("fill", n)
//	updated := n.Value
type Ref struct {
	Value any
}

// ByRef wraps a value for a by-reference parameter. For pure out parameters
// the initial value only sets the slot's type and may be zero.
func ByRef(v any) *Ref {
	return &Ref{Value: v}
}
