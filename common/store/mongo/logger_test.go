package mongo

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLoggerSinkLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := &logger{log: zerolog.New(&buf).Level(zerolog.DebugLevel)}

	l.Info(1, "started", "command", "insert", "dangling")
	l.Info(2, "details", "request", 7)
	l.Info(5, "dropped")
	l.Error(errors.New("boom"), "failed", "command", "find")

	out := buf.String()
	assert.Contains(t, out, `"level":"info","command":"insert","message":"started"`)
	assert.Contains(t, out, `"level":"debug","request":7,"message":"details"`)
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, `"error":"boom"`)
}
