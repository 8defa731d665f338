package quota

import (
	"errors"
	"fmt"
	"time"
)

var ErrQuotaExceeded = errors.New("daily message quota exceeded")

// Store is the persistence hook the ledger drives. Both operations must
// be atomic with respect to concurrent calls for the same user: a
// conditional UPDATE (or equivalent compare-and-set) on the user row,
// never a separate read-then-write.
type Store interface {
	// ResetDailyCount zeroes the user's counter and stamps date, only
	// when the stored reset date differs. Reports whether a reset
	// was applied.
	ResetDailyCount(userID, date string) (bool, error)
	// IncrementDailyCount adds one to the counter, only while the
	// counter is below limit and the stored reset date equals date.
	// Reports whether the increment was applied.
	IncrementDailyCount(userID, date string, limit int) (bool, error)
}

// Ledger enforces the per-day message allowance. The reset is lazy: it
// happens on the first access of a calendar day, derived from wall
// clock time, with no background scheduler involved.
type Ledger struct {
	store Store
	now   func() time.Time
}

// NewLedger builds a ledger; now may be nil for wall-clock time.
func NewLedger(store Store, now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{store: store, now: now}
}

// Reserve consumes one quota unit for the user, resetting the daily
// counter first when the calendar day has changed. The unit is taken
// before the generation starts and is not refunded when the generation
// later fails or is cancelled.
func (l *Ledger) Reserve(userID string, limit int) error {
	today := l.today()
	if _, err := l.store.ResetDailyCount(userID, today); err != nil {
		return fmt.Errorf("reset daily count: %w", err)
	}
	ok, err := l.store.IncrementDailyCount(userID, today, limit)
	if err != nil {
		return fmt.Errorf("increment daily count: %w", err)
	}
	if !ok {
		return ErrQuotaExceeded
	}
	return nil
}

// Refresh applies the lazy daily reset without consuming a unit. Read
// paths call it so a stale counter never reaches the client. Reports
// whether a reset was applied.
func (l *Ledger) Refresh(userID string) (bool, error) {
	reset, err := l.store.ResetDailyCount(userID, l.today())
	if err != nil {
		return false, fmt.Errorf("reset daily count: %w", err)
	}
	return reset, nil
}

// Today returns the current calendar date in the format stored in
// last_reset_date.
func (l *Ledger) Today() string {
	return l.today()
}

func (l *Ledger) today() string {
	return l.now().Format("2006-01-02")
}
