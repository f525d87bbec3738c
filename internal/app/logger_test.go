package app

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/go-task-tracker/internal/config"
)

func TestApplicationLoggerWritesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	prev := config.Global()
	config.SetGlobal(&config.Config{Env: config.EnvProd, Log: config.LogConfig{File: path}})
	t.Cleanup(func() {
		CloseLogFile()
		config.SetGlobal(prev)
	})

	InitDefaultLogger()
	MustInitApplicationLogger()
	logger := componentLogger("test")
	logger.Info().Int64("task_id", 7).Msg("file line")
	CloseLogFile()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.NoError(t, scanner.Err())
	require.NotEmpty(t, lines)

	last := lines[len(lines)-1]
	assert.Equal(t, "file line", last["message"])
	assert.Equal(t, serviceName, last["service"])
	assert.Equal(t, "test", last["component"])
	assert.Equal(t, float64(7), last["task_id"])
}

func TestOpenLogFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0o644))

	f, err := openLogFile(path)
	require.NoError(t, err)
	_, err = f.WriteString("next\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "existing\nnext\n", string(data))
}
