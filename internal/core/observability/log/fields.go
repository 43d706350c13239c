package log

import (
	"time"

	"go.uber.org/zap"
)

// Field is a typed key/value pair attached to log entries.
type Field struct {
	Key   string
	Type  FieldType
	Value any
}

// A FieldType selects how the value is serialized.
type FieldType uint8

const (
	AnyType FieldType = iota
	BoolType
	DurationType
	Float64Type
	IntType
	Uint64Type
	StringType
	ErrorType
)

func Any(key string, val any) Field   { return Field{Key: key, Type: AnyType, Value: val} }
func Bool(key string, val bool) Field { return Field{Key: key, Type: BoolType, Value: val} }
func Int(key string, val int) Field   { return Field{Key: key, Type: IntType, Value: val} }
func String(key, val string) Field    { return Field{Key: key, Type: StringType, Value: val} }
func Uint64(key string, val uint64) Field {
	return Field{Key: key, Type: Uint64Type, Value: val}
}

func Float64(key string, val float64) Field {
	return Field{Key: key, Type: Float64Type, Value: val}
}

func Duration(key string, val time.Duration) Field {
	return Field{Key: key, Type: DurationType, Value: val}
}

func Error(val error) Field { return Field{Key: "error", Type: ErrorType, Value: val} }

func toZap(fields []Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		switch f.Type {
		case BoolType:
			out = append(out, zap.Bool(f.Key, f.Value.(bool)))
		case DurationType:
			out = append(out, zap.Duration(f.Key, f.Value.(time.Duration)))
		case Float64Type:
			out = append(out, zap.Float64(f.Key, f.Value.(float64)))
		case IntType:
			out = append(out, zap.Int(f.Key, f.Value.(int)))
		case Uint64Type:
			out = append(out, zap.Uint64(f.Key, f.Value.(uint64)))
		case StringType:
			out = append(out, zap.String(f.Key, f.Value.(string)))
		case ErrorType:
			err, _ := f.Value.(error)
			out = append(out, zap.Error(err))
		default:
			out = append(out, zap.Any(f.Key, f.Value))
		}
	}
	return out
}
