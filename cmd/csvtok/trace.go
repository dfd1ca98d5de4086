package main

import (
	"io"

	"github.com/npillmayer/schuko/tracing"
	"github.com/rs/zerolog"
)

// logTrace routes schuko traces into a zerolog logger.
type logTrace struct {
	log   zerolog.Logger
	level tracing.TraceLevel
}

func (t *logTrace) Errorf(format string, args ...interface{}) {
	t.log.Error().Msgf(format, args...)
}

func (t *logTrace) Infof(format string, args ...interface{}) {
	if t.level >= tracing.LevelInfo {
		t.log.Info().Msgf(format, args...)
	}
}

func (t *logTrace) Debugf(format string, args ...interface{}) {
	if t.level >= tracing.LevelDebug {
		t.log.Debug().Msgf(format, args...)
	}
}

func (t *logTrace) P(key string, val interface{}) tracing.Trace {
	return &logTrace{log: t.log.With().Interface(key, val).Logger(), level: t.level}
}

func (t *logTrace) SetTraceLevel(l tracing.TraceLevel) { t.level = l }

func (t *logTrace) GetTraceLevel() tracing.TraceLevel { return t.level }

func (t *logTrace) SetOutput(w io.Writer) { t.log = t.log.Output(w) }

// logSelector hands out one tracer per key, tagged with the key.
type logSelector struct {
	log   zerolog.Logger
	level tracing.TraceLevel
}

func (s logSelector) Select(key string) tracing.Trace {
	return &logTrace{log: s.log.With().Str("tracer", key).Logger(), level: s.level}
}
