package log

import (
	"fmt"

	"go.uber.org/zap"
)

// toFields turns logr-style arguments into zap fields. A zap.Field or an
// error may appear on its own; everything else is read as key/value pairs.
// Non-string keys and a dangling value are kept under synthetic keys rather
// than dropped.
func toFields(args ...any) []zap.Field {
	if len(args) == 0 {
		return nil
	}

	fields := make([]zap.Field, 0, len(args)/2+1)
	for i := 0; i < len(args); i++ {
		switch v := args[i].(type) {
		case zap.Field:
			fields = append(fields, v)
			continue
		case error:
			fields = append(fields, zap.Error(v))
			continue
		}

		if i == len(args)-1 {
			fields = append(fields, zap.Any(fmt.Sprintf("arg%d", i), args[i]))
			break
		}

		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprintf("badkey%d", i)
		}
		fields = append(fields, field(key, args[i+1]))
		i++
	}
	return fields
}

func field(key string, v any) zap.Field {
	switch v := v.(type) {
	case error:
		return zap.NamedError(key, v)
	case fmt.Stringer:
		return zap.Stringer(key, v)
	default:
		return zap.Any(key, v)
	}
}
