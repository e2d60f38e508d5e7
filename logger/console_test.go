package logger

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedLogger(buf *bytes.Buffer, level string) *ConsoleLogger {
	cl := NewConsoleLogger(buf, level)
	cl.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return cl
}

func TestNormalizeLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "debug"},
		{"  INFO ", "info"},
		{"Warning", "warn"},
		{"error", "error"},
		{"", "warn"},
		{"loud", "warn"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeLevel(tt.in))
		})
	}
}

func TestConsoleLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	cl := fixedLogger(&buf, "warn")

	cl.Debugf("hidden %d", 1)
	cl.Infof("hidden too")
	cl.Warnf("could not read %s", "a.txt")
	cl.Errorf("boom")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "[03:04:05] WARN could not read a.txt", lines[0])
	assert.Equal(t, "[03:04:05] ERROR boom", lines[1])
}

func TestConsoleLoggerNoColorForBuffers(t *testing.T) {
	var buf bytes.Buffer
	cl := fixedLogger(&buf, "debug")
	cl.Debugf("plain")
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestConsoleLoggerNilWriter(t *testing.T) {
	cl := NewConsoleLogger(nil, "trace")
	assert.NotPanics(t, func() { cl.Errorf("dropped") })
}

func TestConsoleLoggerConcurrentWrites(t *testing.T) {
	var buf bytes.Buffer
	cl := fixedLogger(&buf, "info")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			cl.Infof("line %d", n)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 20)
	for _, l := range lines {
		assert.True(t, strings.HasPrefix(l, "[03:04:05] INFO line "), fmt.Sprintf("unexpected line %q", l))
	}
}
