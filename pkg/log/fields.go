package log

import "time"

// Field is one structured key/value attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// Str creates a string field.
func Str(key, value string) Field { return Field{Key: key, Value: value} }

// Int creates an int field.
func Int(key string, value int) Field { return Field{Key: key, Value: value} }

// Uint64 creates a uint64 field.
func Uint64(key string, value uint64) Field { return Field{Key: key, Value: value} }

// Bool creates a bool field.
func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

// Dur creates a duration field.
func Dur(key string, value time.Duration) Field { return Field{Key: key, Value: value.String()} }

// Err creates an error field under the conventional "error" key.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Component tags the originating component.
func Component(name string) Field { return Field{Key: "component", Value: name} }
