package logging

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		SetVerbose(false)
	})
	return &buf
}

func TestDebugf_RespectsVerbose(t *testing.T) {
	buf := captureLog(t)

	SetVerbose(false)
	Debugf("[SYNC] hidden %d", 1)
	assert.Empty(t, buf.String())

	SetVerbose(true)
	Debugf("[SYNC] shown %d", 2)
	assert.Contains(t, buf.String(), "[SYNC] shown 2")
	assert.True(t, Verbose())
}

func TestSetup_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shelfsync.log")
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	closer := Setup(Config{File: path, MaxSizeMB: 1, MaxBackups: 1})
	log.Printf("[TEST] hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[TEST] hello")
}

func TestSetup_StderrOnly(t *testing.T) {
	t.Cleanup(func() { SetVerbose(false) })

	closer := Setup(Config{Verbose: true})
	assert.True(t, Verbose())
	assert.NoError(t, closer.Close())
}
