package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureJSON(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() { Configure(Config{}) })

	l := WithComponent("checker")
	l.Debug().Str(FieldURL, "http://x.test/1").Msg("probe")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "checker", entry[FieldComponent])
	assert.Equal(t, "playlistcheck", entry[FieldService])
	assert.Equal(t, "http://x.test/1", entry[FieldURL])
	assert.Equal(t, "debug", entry["level"])
}

func TestConfigureLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "WARN", Format: "json", Output: &buf})
	t.Cleanup(func() { Configure(Config{}) })

	l := Base()
	l.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	l.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestConfigureConsole(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Output: &buf})
	t.Cleanup(func() { Configure(Config{}) })

	l := Base()
	l.Info().Str(FieldReason, "Timeout").Msg("probe failed")
	out := buf.String()
	assert.Contains(t, out, "probe failed")
	assert.Contains(t, out, "reason=Timeout")
	assert.NotContains(t, out, "\x1b[", "non-terminal output must not be colored")
}
