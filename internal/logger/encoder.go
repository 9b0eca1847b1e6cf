package logger

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

var pool = buffer.NewPool()

// consoleEncoder formats entries as "[HH:MM:SS] [LEVEL] message key=value".
type consoleEncoder struct {
	zapcore.Encoder // field accumulation for With
	fields          []zapcore.Field
	color           bool
}

func newConsoleEncoder(useColor bool) *consoleEncoder {
	return &consoleEncoder{
		Encoder: zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		color:   useColor,
	}
}

func (enc *consoleEncoder) Clone() zapcore.Encoder {
	return &consoleEncoder{
		Encoder: enc.Encoder.Clone(),
		fields:  append([]zapcore.Field(nil), enc.fields...),
		color:   enc.color,
	}
}

// AddString and friends are only reached through With; collect the fields
// so EncodeEntry can print them in order.
func (enc *consoleEncoder) AddString(key, value string) {
	enc.fields = append(enc.fields, zap.String(key, value))
}

func (enc *consoleEncoder) AddInt64(key string, value int64) {
	enc.fields = append(enc.fields, zap.Int64(key, value))
}

func (enc *consoleEncoder) AddBool(key string, value bool) {
	enc.fields = append(enc.fields, zap.Bool(key, value))
}

func (enc *consoleEncoder) AddReflected(key string, value any) error {
	enc.fields = append(enc.fields, zap.Any(key, value))
	return nil
}

func (enc *consoleEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	line := pool.Get()

	line.AppendString("[")
	line.AppendString(ent.Time.Format("15:04:05"))
	line.AppendString("] [")
	line.AppendString(enc.levelString(ent.Level))
	line.AppendString("] ")
	line.AppendString(ent.Message)

	all := append(append([]zapcore.Field(nil), enc.fields...), fields...)
	for _, f := range all {
		line.AppendString(" ")
		line.AppendString(f.Key)
		line.AppendString("=")
		line.AppendString(fieldValue(f))
	}

	line.AppendString("\n")
	return line, nil
}

func (enc *consoleEncoder) levelString(level zapcore.Level) string {
	name := levelName(level)
	if !enc.color {
		return name
	}
	switch level {
	case TraceLevel:
		return color.New(color.FgHiBlack).Sprint(name)
	case zapcore.DebugLevel:
		return color.New(color.FgCyan).Sprint(name)
	case zapcore.InfoLevel:
		return color.New(color.FgBlue).Sprint(name)
	case zapcore.WarnLevel:
		return color.New(color.FgYellow).Sprint(name)
	default:
		return color.New(color.FgRed).Sprint(name)
	}
}

func levelName(level zapcore.Level) string {
	if level == TraceLevel {
		return "TRACE"
	}
	return level.CapitalString()
}

func fieldValue(f zapcore.Field) string {
	switch f.Type {
	case zapcore.StringType:
		return f.String
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type:
		return fmt.Sprintf("%d", f.Integer)
	case zapcore.BoolType:
		return fmt.Sprintf("%t", f.Integer == 1)
	case zapcore.ErrorType:
		if err, ok := f.Interface.(error); ok {
			return err.Error()
		}
	}
	if f.Interface != nil {
		return strings.TrimSpace(fmt.Sprintf("%v", f.Interface))
	}
	return ""
}
