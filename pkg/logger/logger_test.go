package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCriticalLevelIsRenamed(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelInfo, "text")

	log.Critical("db down", "attempt", 3)

	assert.Contains(t, buf.String(), "level=CRITICAL")
	assert.Contains(t, buf.String(), "attempt=3")
}

func TestBusinessErrorSkipsNil(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelDebug, "json")

	log.BusinessError("members.login: invalid credentials", nil)
	assert.Empty(t, buf.String())

	log.BusinessError("members.login: invalid credentials", errors.New("invalid credentials"), "email", "a@b.c")
	out := buf.String()
	assert.Contains(t, out, `"level":"WARN"`)
	assert.Contains(t, out, `"err":"invalid credentials"`)
}

func TestParseFormatDefaultsByEnv(t *testing.T) {
	assert.Equal(t, "text", parseFormat("", "development"))
	assert.Equal(t, "json", parseFormat("", "production"))
	assert.Equal(t, "text", parseFormat(" TEXT ", "production"))
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, slog.LevelInfo, "text")
	scoped := base.With("request_id", "abc")

	ctx := NewContext(context.Background(), scoped)
	FromContext(ctx, base).Info("hello")

	assert.True(t, strings.Contains(buf.String(), "request_id=abc"))
	assert.Equal(t, base, FromContext(context.Background(), base))
}
