// Package audit provides structured logging for verification lifecycle
// events. Every engine decision (verification started, AI scored, fallback
// used, trust score updated) is written as a JSON line to a dedicated
// rotating audit log so outcomes can be reviewed after the fact. Records
// are append-only; the logger has no update or delete surface.
package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/trustcart/trustcart/internal/domain"
)

// Truncation limits for free text captured in audit entries.
const (
	maxDescriptionLen = 200
	maxRawResponseLen = 500
)

// Entry records a single engine event as one JSON line.
type Entry struct {
	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// RequestID ties together all entries of one verification request.
	RequestID string `json:"request_id,omitempty"`

	// Action categorizes the event (e.g. "verification_started",
	// "fallback_verification_used", "trust_score_updated").
	Action string `json:"action"`

	// SellerID identifies the seller involved, when known.
	SellerID string `json:"seller_id,omitempty"`

	// Severity is "info", "warning" or "error".
	Severity string `json:"severity"`

	// Details contains event-specific metadata.
	Details map[string]interface{} `json:"details,omitempty"`
}

// Logger writes audit entries to a rotating log file. A disabled Logger is
// a safe no-op.
type Logger struct {
	mu       sync.Mutex
	encoder  *json.Encoder
	file     *lumberjack.Logger
	enabled  bool
	fallback *log.Logger // standard logging if the file write fails
}

// Config holds audit logger configuration.
type Config struct {
	Enabled bool `yaml:"enabled" json:"enabled"`

	// LogPath is the audit log file path.
	LogPath string `yaml:"log-path" json:"log-path"`

	// MaxSizeMB is the rotation threshold. Default: 100 MB.
	MaxSizeMB int `yaml:"max-size-mb" json:"max-size-mb"`

	// MaxBackups is how many rotated files to keep. Default: 10.
	MaxBackups int `yaml:"max-backups" json:"max-backups"`

	// MaxAgeDays is how long to keep rotated files. Default: 30.
	MaxAgeDays int `yaml:"max-age-days" json:"max-age-days"`

	// Compress controls gzip compression of rotated files.
	Compress bool `yaml:"compress" json:"compress"`
}

// NewLogger creates an audit logger. When cfg.Enabled is false all logging
// methods are no-ops.
func NewLogger(cfg Config) (*Logger, error) {
	if !cfg.Enabled {
		return &Logger{enabled: false, fallback: log.New()}, nil
	}

	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = 100
	}
	if cfg.MaxBackups == 0 {
		cfg.MaxBackups = 10
	}
	if cfg.MaxAgeDays == 0 {
		cfg.MaxAgeDays = 30
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0755); err != nil {
		return nil, err
	}

	fileLogger := &lumberjack.Logger{
		Filename:   cfg.LogPath,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}

	return &Logger{
		encoder:  json.NewEncoder(fileLogger),
		file:     fileLogger,
		enabled:  true,
		fallback: log.New(),
	}, nil
}

// Log writes a single audit entry. Thread-safe.
func (l *Logger) Log(entry Entry) {
	if l == nil || !l.enabled {
		return
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.Severity == "" {
		entry.Severity = "info"
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.encoder.Encode(entry); err != nil {
		l.fallback.WithFields(log.Fields{
			"error":      err.Error(),
			"request_id": entry.RequestID,
			"action":     entry.Action,
		}).Error("Failed to write audit log entry")
	}
}

// LogVerificationStarted records the inputs of a new verification request.
// Free-text fields are truncated to keep entries bounded.
func (l *Logger) LogVerificationStarted(requestID string, promise domain.PromiseRecord, invoice domain.InvoiceRecord) {
	l.Log(Entry{
		RequestID: requestID,
		Action:    "verification_started",
		Details: map[string]interface{}{
			"promise": map[string]interface{}{
				"price":               promise.Price,
				"delivery_charges":    promise.DeliveryCharges,
				"delivery_time":       promise.DeliveryTime,
				"return_policy":       promise.ReturnPolicy,
				"product_description": truncate(promise.ProductDescription, maxDescriptionLen),
			},
			"invoice": map[string]interface{}{
				"price":               invoice.Price,
				"delivery_charges":    invoice.DeliveryCharges,
				"delivery_time":       invoice.DeliveryTime,
				"return_policy":       invoice.ReturnPolicy,
				"product_description": truncate(invoice.ProductDescription, maxDescriptionLen),
			},
		},
	})
}

// LogAIScored records a completed AI-backed verification.
func (l *Logger) LogAIScored(requestID string, score, mismatchCount int, rawResponse string, elapsed time.Duration) {
	severity := "info"
	if score < 50 {
		severity = "warning"
	}
	l.Log(Entry{
		RequestID: requestID,
		Action:    "ai_verification_completed",
		Severity:  severity,
		Details: map[string]interface{}{
			"overall_score":      score,
			"mismatch_count":     mismatchCount,
			"processing_time_ms": elapsed.Milliseconds(),
			"raw_response":       truncate(rawResponse, maxRawResponseLen),
		},
	})
}

// LogRuleScored records a completed rule-based verification.
func (l *Logger) LogRuleScored(requestID string, score, mismatchCount int) {
	l.Log(Entry{
		RequestID: requestID,
		Action:    "verification_completed",
		Details: map[string]interface{}{
			"overall_score":  score,
			"mismatch_count": mismatchCount,
		},
	})
}

// LogFallback records that the deterministic fallback was used.
func (l *Logger) LogFallback(requestID, reason, detail string) {
	l.Log(Entry{
		RequestID: requestID,
		Action:    "fallback_verification_used",
		Severity:  "warning",
		Details: map[string]interface{}{
			"reason": reason,
			"detail": truncate(detail, maxRawResponseLen),
		},
	})
}

// LogSellerRegistered records a new seller registration.
func (l *Logger) LogSellerRegistered(sellerID, platform string) {
	l.Log(Entry{
		Action:   "seller_registered",
		SellerID: sellerID,
		Details:  map[string]interface{}{"platform": platform},
	})
}

// LogTrustScoreUpdated records a reputation update.
func (l *Logger) LogTrustScoreUpdated(sellerID string, newScore float64, totalVerifications int) {
	l.Log(Entry{
		Action:   "trust_score_updated",
		SellerID: sellerID,
		Details: map[string]interface{}{
			"trust_score":         newScore,
			"total_verifications": totalVerifications,
		},
	})
}

// LogSystemError records an unexpected engine-adjacent failure.
func (l *Logger) LogSystemError(requestID, action string, err error) {
	l.Log(Entry{
		RequestID: requestID,
		Action:    "system_error",
		Severity:  "error",
		Details: map[string]interface{}{
			"failed_action": action,
			"error":         err.Error(),
		},
	})
}

// Close flushes and closes the audit log file.
func (l *Logger) Close() error {
	if l == nil || !l.enabled || l.file == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
