package gameproc

import (
	"fmt"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/craftpanel/craftpanel-go/internal/config"
)

func TestConsoleBufferCapsAndStrips(t *testing.T) {
	buf := NewConsoleBuffer(3)

	buf.Append("\x1b[32m[12:00:01] Server started\x1b[0m")
	buf.Append("")
	buf.Append("line 2\r\n")
	buf.Append("line 3")
	buf.Append("line 4")

	lines := buf.Lines()
	require.Len(t, lines, 3, "capped at max, blank lines dropped")
	assert.Equal(t, "line 2", lines[0])
	assert.Equal(t, "line 4", lines[2])
}

func TestConsoleBufferTail(t *testing.T) {
	buf := NewConsoleBuffer(10)
	for i := 1; i <= 5; i++ {
		buf.Append(fmt.Sprintf("line %d", i))
	}

	tail := buf.Tail(2)
	require.Len(t, tail, 2)
	assert.Equal(t, []string{"line 4", "line 5"}, tail)

	assert.Empty(t, buf.Tail(0), "zero requests no history")
	assert.Len(t, buf.Tail(-1), 5, "negative n returns everything")
	assert.Len(t, buf.Tail(100), 5)
}

func TestCleanAnsi(t *testing.T) {
	assert.Equal(t, "hello", cleanAnsi("\x1b[1;31mhello\x1b[0m"))
	assert.Equal(t, "plain", cleanAnsi("plain"))
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("relies on sh")
	}
}

func TestSupervisorLifecycle(t *testing.T) {
	skipOnWindows(t)

	buf := NewConsoleBuffer(100)
	var mu sync.Mutex
	var seen []string
	sup := NewSupervisor(&config.GameConfig{
		Command:     "sh",
		Args:        []string{"-c", "echo booted; read line; exit 0"},
		StopCommand: "stop",
		StopTimeout: 5,
	}, buf, zap.NewNop(), func(line string) {
		mu.Lock()
		seen = append(seen, line)
		mu.Unlock()
	})

	require.NoError(t, sup.Start())
	assert.Error(t, sup.Start(), "double start rejected")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"booted"}, buf.Lines())

	info := sup.Snapshot()
	assert.Equal(t, StatusRunning, info.Status)
	assert.NotZero(t, info.PID)

	// The stop command satisfies the read and the process exits cleanly.
	require.NoError(t, sup.Stop())
	require.Eventually(t, func() bool {
		return sup.Snapshot().Status == StatusStopped
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSupervisorCrashDetection(t *testing.T) {
	skipOnWindows(t)

	sup := NewSupervisor(&config.GameConfig{
		Command: "sh",
		Args:    []string{"-c", "exit 7"},
	}, NewConsoleBuffer(10), zap.NewNop(), nil)

	require.NoError(t, sup.Start())
	require.Eventually(t, func() bool {
		return sup.Snapshot().Status == StatusCrashed
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, sup.Snapshot().LastError, "exit status 7")
}

func TestSendCommandRequiresRunningProcess(t *testing.T) {
	sup := NewSupervisor(&config.GameConfig{Command: "sh"}, nil, zap.NewNop(), nil)
	assert.Error(t, sup.SendCommand("/say hi"))
}

func TestStartRequiresCommand(t *testing.T) {
	sup := NewSupervisor(&config.GameConfig{}, nil, zap.NewNop(), nil)
	assert.Error(t, sup.Start())
}
