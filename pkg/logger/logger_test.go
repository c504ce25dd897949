package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier/storefront/pkg/logger"
)

func TestWithCtxFallsBackToBase(t *testing.T) {
	assert.Same(t, logger.L, logger.WithCtx(context.Background()))
}

func TestInjectLogger(t *testing.T) {
	var buf bytes.Buffer
	base := logger.SetupWriter(&buf, true)

	ctx := logger.InjectLogger(context.Background(), base.With("request_id", "abc123"))
	logger.WithCtx(ctx).Info("order placed", "total", 90.0)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "order placed", line["msg"])
	assert.Equal(t, "abc123", line["request_id"])
	assert.Equal(t, 90.0, line["total"])
}

type recordingHandler struct {
	records *[]string
}

func (h recordingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h recordingHandler) Handle(_ context.Context, r slog.Record) error {
	*h.records = append(*h.records, r.Message)
	return nil
}
func (h recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h recordingHandler) WithGroup(string) slog.Handler      { return h }

func TestSetupFansOutToExtraHandlers(t *testing.T) {
	var buf bytes.Buffer
	var seen []string

	log := logger.SetupWriter(&buf, false, recordingHandler{records: &seen})
	log.Info("user registered")

	assert.Equal(t, []string{"user registered"}, seen)
	assert.Contains(t, buf.String(), "user registered")
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, logger.LevelFor(200))
	assert.Equal(t, slog.LevelWarn, logger.LevelFor(404))
	assert.Equal(t, slog.LevelError, logger.LevelFor(503))
}
