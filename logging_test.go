package slime

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLogger_DebugGate(t *testing.T) {
	var buf bytes.Buffer
	l := NewDefaultLogger("test", false)
	l.out = log.New(&buf, "", 0)

	l.Debugf("hidden %d", 1)
	assert.Empty(t, buf.String())

	l.SetDebug(true)
	require.True(t, l.DebugEnabled())

	l.Debugf("shown %d", 2)
	assert.Equal(t, "[test] DEBUG: shown 2\n", buf.String())
}

func TestDefaultLogger_PrefixFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewDefaultLogger("slime", false)
	l.out = log.New(&buf, "", 0)

	l.Infof("loaded %s", "asset")
	assert.Equal(t, "[slime] INFO: loaded asset\n", buf.String())
}

func TestDefaultLogger_NoPrefix(t *testing.T) {
	var buf bytes.Buffer
	l := NewDefaultLogger("", false)
	l.out = log.New(&buf, "", 0)

	l.Infof("bare")
	assert.Equal(t, "INFO: bare\n", buf.String())
}

func TestDefaultLogger_WarnAndErrorUseErrStream(t *testing.T) {
	var out, errs bytes.Buffer
	l := NewDefaultLogger("test", false)
	l.out = log.New(&out, "", 0)
	l.err = log.New(&errs, "", 0)

	l.Warnf("w")
	l.Errorf("e")

	assert.Empty(t, out.String())
	assert.Equal(t, "[test] WARN: w\n[test] ERROR: e\n", errs.String())
}

func TestApp_LoggerFallsBackToNop(t *testing.T) {
	app := NewApp()

	l := app.Logger()
	require.NotNil(t, l)
	assert.False(t, l.DebugEnabled())
}

func TestApp_LoggerReturnsInstalled(t *testing.T) {
	app := NewApp()
	app.UseModules(LoggingModule{Prefix: "test", Debug: true})

	l := app.Logger()
	require.NotNil(t, l)
	assert.True(t, l.DebugEnabled())
	assert.IsType(t, &DefaultLogger{}, l)
}
