package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadPidFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		assert.Equal(t, 0, readPidFile(filepath.Join(dir, "missing.pid")))
	})

	t.Run("garbage content", func(t *testing.T) {
		path := filepath.Join(dir, "garbage.pid")
		require.NoError(t, os.WriteFile(path, []byte("not-a-pid"), 0644))
		assert.Equal(t, 0, readPidFile(path))
	})

	t.Run("own pid", func(t *testing.T) {
		path := filepath.Join(dir, "self.pid")
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644))
		assert.Equal(t, os.Getpid(), readPidFile(path))
	})

	t.Run("stale pid", func(t *testing.T) {
		path := filepath.Join(dir, "stale.pid")
		// PID max on Linux defaults to well below this value.
		require.NoError(t, os.WriteFile(path, []byte("99999999"), 0644))
		assert.Equal(t, 0, readPidFile(path))
	})
}

func TestCheckReport_TableShape(t *testing.T) {
	report := &checkReport{Checks: []checkEntry{
		{Name: "python runtime", Status: "pass", Detail: "Python 3.11.4"},
		{Name: "port availability", Status: "fail", Detail: "port 8000 is already in use"},
	}}

	assert.Len(t, report.Headers(), 3)
	rows := report.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "pass", rows[0][1])
	assert.Equal(t, "fail", rows[1][1])
}
