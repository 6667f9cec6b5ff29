// pkg/stream/outcome.go
package stream

import (
	"go.uber.org/zap/zapcore"
)

// Outcome is a closed two-state value: either a success carrying T or a
// failure carrying E. Go does not let us attach methods to types owned by
// other packages, and a bare (T, error) pair is not a value at all, so the
// layers that need a single channel element implementing a foreign interface
// (zapcore.ObjectMarshaler) get this local wrapper instead.
//
// The only construction path is OutcomeOf: a conversion that is total over
// both native result states. There is no third state.
type Outcome[T any, E error] struct {
	val T
	err E
	ok  bool
}

// OutcomeOf converts a native (value, error) result into an Outcome.
// A nil error yields a success, anything else a failure.
func OutcomeOf[T any, E error](val T, err E) Outcome[T, E] {
	var zero E
	if any(err) == any(zero) {
		return Outcome[T, E]{val: val, ok: true}
	}
	return Outcome[T, E]{err: err}
}

// Ok reports whether the outcome is a success.
func (o Outcome[T, E]) Ok() bool { return o.ok }

// Value returns the success payload and whether one is present.
func (o Outcome[T, E]) Value() (T, bool) { return o.val, o.ok }

// Err returns the failure payload and whether one is present.
func (o Outcome[T, E]) Err() (E, bool) { return o.err, !o.ok }

// Unpack flattens the outcome back into the native result shape.
func (o Outcome[T, E]) Unpack() (T, E) { return o.val, o.err }

// MarshalLogObject implements zapcore.ObjectMarshaler so outcomes can be
// logged structurally without flattening them first.
func (o Outcome[T, E]) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddBool("ok", o.ok)
	if o.ok {
		return enc.AddReflected("value", o.val)
	}
	enc.AddString("error", error(o.err).Error())
	return nil
}
