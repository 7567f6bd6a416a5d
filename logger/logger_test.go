package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		" warn ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equalf(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestInit_WritesJSON(t *testing.T) {
	Reset()
	defer Reset()

	var buf bytes.Buffer
	log := Init(Options{Level: "debug", Output: &buf})
	log.Info().Str("table", "income_records").Msg("hola")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hola", line["message"])
	assert.Equal(t, "income_records", line["table"])
	assert.Equal(t, "palmera", line["app"])

	// 再次 Init 不会替换已有实例
	var other bytes.Buffer
	Init(Options{Output: &other})
	l := Get()
	l.Info().Msg("segunda")
	assert.Zero(t, other.Len())
}

func TestGet_BeforeInitIsNop(t *testing.T) {
	Reset()
	assert.NotPanics(t, func() {
		l := Get()
		l.Info().Msg("ignorado")
	})
}
