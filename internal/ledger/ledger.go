// Package ledger keeps an append-only record of completed bookings.
//
// Records are stored as JSON lines in a local file, one line per booking,
// suitable for reconciliation jobs that tail the file.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/MrWong99/flightdesk/internal/booking"
)

// Record is a single booking entry written to the file store.
type Record struct {
	Timestamp          time.Time    `json:"timestamp"`
	SessionID          string       `json:"session_id"`
	ConfirmationNumber string       `json:"confirmation_number"`
	Booking            booking.View `json:"booking"`
}

// FileStore persists bookings as JSON lines in a local file.
// Thread-safe for concurrent use.
type FileStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewFileStore creates a FileStore that writes to the given path.
// The file is created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// RecordBooking appends v to the file. v must carry a confirmation number.
func (fs *FileStore) RecordBooking(_ context.Context, sessionID string, v booking.View) error {
	if v.ConfirmationNumber == "" {
		return fmt.Errorf("ledger: session %s: booking has no confirmation number", sessionID)
	}

	record := Record{
		Timestamp:          fs.now().UTC(),
		SessionID:          sessionID,
		ConfirmationNumber: v.ConfirmationNumber,
		Booking:            v,
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("ledger: marshal: %w", err)
	}
	data = append(data, '\n')

	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, err := os.OpenFile(fs.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("ledger: open file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("ledger: write: %w", err)
	}
	return nil
}
