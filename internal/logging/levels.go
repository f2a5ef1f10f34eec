package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"
)

// TraceLevel sits one step below zap's Debug. Provider record decisions and
// raw classifier scores are logged here.
const TraceLevel = zapcore.DebugLevel - 1

const traceName = "trace"

// LevelFromString accepts zap's level names plus "trace". Case and
// surrounding space are ignored.
func LevelFromString(s string) (zapcore.Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == traceName {
		return TraceLevel, nil
	}
	level, err := zapcore.ParseLevel(name)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("unknown level %q", s)
	}
	return level, nil
}

func levelName(l zapcore.Level) string {
	if l == TraceLevel {
		return traceName
	}
	return l.String()
}

func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(levelName(l))
}

func encodeCapitalLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(strings.ToUpper(levelName(l)))
}
