package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustcart/trustcart/internal/domain"
)

func newTestLogger(t *testing.T) (*Logger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.log")
	logger, err := NewLogger(Config{Enabled: true, LogPath: path})
	require.NoError(t, err)
	t.Cleanup(func() { logger.Close() })
	return logger, path
}

func readEntries(t *testing.T, path string) []Entry {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Entry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		entries = append(entries, e)
	}
	require.NoError(t, scanner.Err())
	return entries
}

func TestLogger_WritesJSONLines(t *testing.T) {
	logger, path := newTestLogger(t)

	logger.LogVerificationStarted("req-1", domain.PromiseRecord{Price: 1500, ReturnPolicy: "30 days"},
		domain.InvoiceRecord{Price: 1600, ReturnPolicy: "no returns"})
	logger.LogRuleScored("req-1", 30, 2)
	logger.LogTrustScoreUpdated("SELLER-ABC-123", 82, 11)

	entries := readEntries(t, path)
	require.Len(t, entries, 3)

	assert.Equal(t, "verification_started", entries[0].Action)
	assert.Equal(t, "req-1", entries[0].RequestID)
	assert.Equal(t, "info", entries[0].Severity)
	assert.False(t, entries[0].Timestamp.IsZero())

	assert.Equal(t, "verification_completed", entries[1].Action)
	assert.EqualValues(t, 30, entries[1].Details["overall_score"])

	assert.Equal(t, "trust_score_updated", entries[2].Action)
	assert.Equal(t, "SELLER-ABC-123", entries[2].SellerID)
	assert.EqualValues(t, 82, entries[2].Details["trust_score"])
}

func TestLogger_TruncatesFreeText(t *testing.T) {
	logger, path := newTestLogger(t)

	longDesc := strings.Repeat("d", 400)
	longRaw := strings.Repeat("r", 900)

	logger.LogVerificationStarted("req-2",
		domain.PromiseRecord{ProductDescription: longDesc},
		domain.InvoiceRecord{ProductDescription: longDesc})
	logger.LogAIScored("req-2", 40, 1, longRaw, 125*time.Millisecond)

	entries := readEntries(t, path)
	require.Len(t, entries, 2)

	promise := entries[0].Details["promise"].(map[string]interface{})
	assert.Len(t, promise["product_description"], 200)

	assert.Len(t, entries[1].Details["raw_response"], 500)
	assert.Equal(t, "warning", entries[1].Severity, "scores below 50 flag a warning")
	assert.EqualValues(t, 125, entries[1].Details["processing_time_ms"])
}

func TestLogger_FallbackAndErrorEntries(t *testing.T) {
	logger, path := newTestLogger(t)

	logger.LogFallback("req-3", "probe_failed", "connection refused")
	logger.LogSystemError("req-3", "save_verification", errors.New("disk full"))

	entries := readEntries(t, path)
	require.Len(t, entries, 2)
	assert.Equal(t, "fallback_verification_used", entries[0].Action)
	assert.Equal(t, "warning", entries[0].Severity)
	assert.Equal(t, "system_error", entries[1].Action)
	assert.Equal(t, "error", entries[1].Severity)
	assert.Equal(t, "disk full", entries[1].Details["error"])
}

func TestLogger_DisabledIsNoOp(t *testing.T) {
	logger, err := NewLogger(Config{Enabled: false})
	require.NoError(t, err)

	logger.LogRuleScored("req-4", 100, 0)
	logger.LogSellerRegistered("SELLER-XYZ-789", "whatsapp")
	assert.NoError(t, logger.Close())
}

func TestLogger_NilReceiverIsSafe(t *testing.T) {
	var logger *Logger
	logger.Log(Entry{Action: "anything"})
	assert.NoError(t, logger.Close())
}
