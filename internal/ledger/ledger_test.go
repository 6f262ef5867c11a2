package ledger

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrWong99/flightdesk/internal/booking"
)

func TestFileStore_AppendsRecords(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bookings.jsonl")
	fs := NewFileStore(path)
	fs.now = func() time.Time { return time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC) }

	for _, code := range []string{"K7QX2M", "ABC234"} {
		v := booking.View{FirstName: "Jane", LastName: "Doe", ConfirmationNumber: code}
		if err := fs.RecordBooking(context.Background(), "s-"+code, v); err != nil {
			t.Fatalf("RecordBooking(%s): %v", code, err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var got []Record
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var r Record
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatalf("line %q: %v", sc.Text(), err)
		}
		got = append(got, r)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].ConfirmationNumber != "K7QX2M" || got[1].SessionID != "s-ABC234" {
		t.Errorf("records = %+v", got)
	}
	if got[0].Booking.FirstName != "Jane" || !got[0].Timestamp.Equal(fs.now()) {
		t.Errorf("record[0] = %+v", got[0])
	}
}

func TestFileStore_RequiresConfirmation(t *testing.T) {
	t.Parallel()
	fs := NewFileStore(filepath.Join(t.TempDir(), "bookings.jsonl"))
	if err := fs.RecordBooking(context.Background(), "s1", booking.View{FirstName: "Jane"}); err == nil {
		t.Fatal("expected error for unconfirmed booking")
	}
}

func TestFileStore_UnwritablePath(t *testing.T) {
	t.Parallel()
	fs := NewFileStore(filepath.Join(t.TempDir(), "missing", "bookings.jsonl"))
	if err := fs.RecordBooking(context.Background(), "s1", booking.View{ConfirmationNumber: "K7QX2M"}); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
