package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"gopherboot/internal/mbitest"
)

// writeDump writes data to a file in a temporary directory and returns its
// path.
func writeDump(t *testing.T, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "mbi.bin")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// qemuDumpPath writes the qemu boot information dump to a temporary file.
func qemuDumpPath(t *testing.T) string {
	t.Helper()
	return writeDump(t, mbitest.QemuDump())
}

// resetFlags restores all command flags to their defaults.
func resetFlags() {
	verbose = false
	jsonOut = false
	mmapAvailableOnly = false
	allocKernel = ""
	allocMbiBase = ""
	allocCount = 16
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout

	r, w, err := os.Pipe()
	require.NoError(t, err)

	os.Stdout = w

	// Drain the pipe concurrently so large outputs can not block fn.
	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.Bytes()
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout

	return string(<-done), fnErr
}

// decodeJSON unmarshals the command output into v.
func decodeJSON(t *testing.T, output string, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(output), v), "invalid JSON output: %s", output)
}
