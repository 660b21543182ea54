// Package service defines the interfaces shared between the application layers.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/rinde/internal/ledger"
	"github.com/Veraticus/rinde/internal/model"
)

// KeyValueStore is the small persistent store that holds the session between runs.
// Get returns common.ErrNotFound for a missing key.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Clear removes every key.
	Clear(ctx context.Context) error
	Close() error
}

// ReportWriter publishes a ledger report somewhere outside the application.
type ReportWriter interface {
	Write(ctx context.Context, report LedgerReport) error
}

// DateRange is an inclusive span of calendar days. A zero bound is open.
type DateRange struct {
	Start model.Date
	End   model.Date
}

// Contains reports whether d falls inside the range.
func (r DateRange) Contains(d model.Date) bool {
	if !r.Start.IsZero() && d.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && d.After(r.End) {
		return false
	}
	return true
}

// LedgerReport is the data behind the report screen and the Sheets export.
type LedgerReport struct {
	GeneratedAt time.Time
	DateRange   DateRange
	Owner       string
	Entries     []model.Entry
	BySubtype   []ledger.SubtypeTotal
	Summary     ledger.Summary
}

// NewLedgerReport builds a report over the entries inside r.
// Net debt is cumulative and is computed over every entry.
func NewLedgerReport(owner string, r DateRange, all []model.Entry, now time.Time) LedgerReport {
	inRange := ledger.FilterByRange(all, r.Start, r.End)
	return LedgerReport{
		GeneratedAt: now,
		DateRange:   r,
		Owner:       owner,
		Entries:     inRange,
		BySubtype:   ledger.BySubtype(inRange),
		Summary:     ledger.Summarize(inRange, all),
	}
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
