package logging

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestToZapLevel(t *testing.T) {
	assert.Equal(t, zap.DebugLevel, toZapLevel(LevelDebug))
	assert.Equal(t, zap.WarnLevel, toZapLevel("WARN"))
	assert.Equal(t, zap.InfoLevel, toZapLevel("bogus"))
}

func TestNewRespectsLevel(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatConsole, ""} {
		l := New(Options{Level: LevelWarn, Format: format})
		assert.False(t, l.Core().Enabled(zap.InfoLevel), string(format))
		assert.True(t, l.Core().Enabled(zap.ErrorLevel), string(format))
	}
}

func TestLoadOptionsReadsLoggingSection(t *testing.T) {
	doc := `
fixed_dt: 0.01
logging:
  level: debug
  format: console
  caller: true
`
	opts, err := LoadOptions(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, Options{Level: LevelDebug, Format: FormatConsole, Caller: true}, opts)
}

func TestLoadOptionsDefaults(t *testing.T) {
	opts, err := LoadOptions(strings.NewReader("solver_iterations: 4\n"))
	require.NoError(t, err)
	assert.Equal(t, Options{}, opts)

	opts, err = LoadOptions(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Options{}, opts)
}

func TestLoadOptionsRejectsUnknownFormat(t *testing.T) {
	_, err := LoadOptions(strings.NewReader("logging:\n  format: xml\n"))
	assert.ErrorContains(t, err, "xml")
}

func TestLoadOptionsSampleConfig(t *testing.T) {
	f, err := os.Open("../../configs/physics.yaml")
	require.NoError(t, err)
	defer f.Close()

	opts, err := LoadOptions(f)
	require.NoError(t, err)
	assert.Equal(t, FormatConsole, opts.Format)
	assert.Equal(t, LevelInfo, opts.Level)
}
