package contract

import "fmt"

// Result is the tagged outcome of an agent call. Err is the sole failure
// discriminant: a non-empty Err makes the result a failure regardless of
// what Fields carries, and Fields may still hold structured detail (the
// existing purchase on a duplicate, required vs available amounts, the
// registered task list).
type Result struct {
	Fields map[string]any
	Err    string
}

// OK builds a success result.
func OK(fields map[string]any) Result {
	return Result{Fields: fields}
}

// Fail builds a failure result with a formatted message and no detail.
func Fail(format string, args ...any) Result {
	return Result{Err: fmt.Sprintf(format, args...)}
}

// FailWith builds a failure result carrying structured detail fields.
func FailWith(msg string, fields map[string]any) Result {
	return Result{Err: msg, Fields: fields}
}

// Failed reports whether the result is the error variant.
func (r Result) Failed() bool {
	return r.Err != ""
}

// Field returns the named detail field.
func (r Result) Field(key string) (any, bool) {
	v, ok := r.Fields[key]
	return v, ok
}

// AsMap flattens the result into the open mapping exchanged with callers
// and merged into workflow context. The "error" key is present exactly
// when the result failed.
func (r Result) AsMap() map[string]any {
	out := make(map[string]any, len(r.Fields)+1)
	for k, v := range r.Fields {
		out[k] = v
	}
	if r.Err != "" {
		out["error"] = r.Err
	}
	return out
}
