package mq

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// zerologAdapter 把 watermill 的日志写入 zerolog. watermill 的 info 级别较为嘈杂，降为 debug.
type zerologAdapter struct {
	l zerolog.Logger
}

// NewLoggerAdapter 以 component=mq 包装 l.
func NewLoggerAdapter(l *zerolog.Logger) watermill.LoggerAdapter {
	return zerologAdapter{l: l.With().Str("component", "mq").Logger()}
}

func (z zerologAdapter) log(lvl zerolog.Level, msg string, err error, fields watermill.LogFields) {
	ev := z.l.WithLevel(lvl)
	if ev == nil {
		return
	}

	if err != nil {
		ev = ev.Err(err)
	}

	ev.Fields(map[string]any(fields)).Msg(msg)
}

func (z zerologAdapter) Error(msg string, err error, fields watermill.LogFields) {
	z.log(zerolog.ErrorLevel, msg, err, fields)
}

func (z zerologAdapter) Info(msg string, fields watermill.LogFields) {
	z.log(zerolog.DebugLevel, msg, nil, fields)
}

func (z zerologAdapter) Debug(msg string, fields watermill.LogFields) {
	z.log(zerolog.TraceLevel, msg, nil, fields)
}

func (z zerologAdapter) Trace(msg string, fields watermill.LogFields) {
	z.log(zerolog.TraceLevel, msg, nil, fields)
}

func (z zerologAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return zerologAdapter{l: z.l.With().Fields(map[string]any(fields)).Logger()}
}
