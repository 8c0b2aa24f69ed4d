package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/llabyellov/LouerSimple/internal/core"
	"github.com/llabyellov/LouerSimple/internal/ledger/memory"
)

type countingNotifier struct {
	calls int
	err   error
}

func (n *countingNotifier) NotifyChanged(context.Context) error {
	n.calls++
	return n.err
}

func bookingDraft(start, end core.Date) Draft {
	return Draft{
		Category: core.Loyer,
		Type:     core.Revenue,
		Booking: &core.BookingDetails{
			StartDate:     start,
			EndDate:       end,
			Adults:        2,
			PricePerNight: 120,
		},
	}
}

func TestCreateBookingDerivesAmountAndDate(t *testing.T) {
	store := memory.New()
	notifier := &countingNotifier{}
	svc := NewService(store, notifier)

	start := core.NewDate(2025, time.June, 1)
	end := core.NewDate(2025, time.June, 8)
	tx, err := svc.Create(context.Background(), bookingDraft(start, end))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tx.ID == "" {
		t.Fatalf("expected an assigned id")
	}
	if !tx.Date.Equal(start) {
		t.Fatalf("transaction date = %s, want booking start %s", tx.Date, start)
	}
	if tx.Booking.Nights != 7 {
		t.Fatalf("nights = %d, want 7", tx.Booking.Nights)
	}
	if !almostEqual(tx.Amount, 704.06) {
		t.Fatalf("amount = %v, want 704.06", tx.Amount)
	}
	if tx.Description != "Location 7 nuits" {
		t.Fatalf("description = %q", tx.Description)
	}
	if notifier.calls != 1 {
		t.Fatalf("notifier fired %d times, want 1", notifier.calls)
	}

	rows, _ := store.LoadAll(context.Background())
	if len(rows) != 1 {
		t.Fatalf("store has %d rows, want 1", len(rows))
	}
}

func TestCreateFailsClosed(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewService(store, nil)

	if _, err := svc.Create(ctx, bookingDraft(core.NewDate(2025, time.June, 1), core.NewDate(2025, time.June, 8))); err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	cases := []struct {
		name  string
		draft Draft
		want  error
	}{
		{
			"conflicting range",
			bookingDraft(core.NewDate(2025, time.June, 5), core.NewDate(2025, time.June, 12)),
			core.ErrBookingConflict,
		},
		{
			"zero nights",
			bookingDraft(core.NewDate(2025, time.July, 1), core.NewDate(2025, time.July, 1)),
			core.ErrIncompleteBooking,
		},
		{
			"occupancy cap",
			func() Draft {
				d := bookingDraft(core.NewDate(2025, time.July, 1), core.NewDate(2025, time.July, 5))
				d.Booking.Adults = 3
				d.Booking.Children = 2
				return d
			}(),
			core.ErrOccupancyLimitExceeded,
		},
		{
			"loyer without booking",
			Draft{Category: core.Loyer, Type: core.Revenue, Description: "x"},
			core.ErrBookingRequired,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before, _ := store.LoadAll(ctx)
			_, err := svc.Create(ctx, tc.draft)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
			after, _ := store.LoadAll(ctx)
			if len(after) != len(before) {
				t.Fatalf("validation failure must not write: %d rows before, %d after", len(before), len(after))
			}
		})
	}
}

func TestCreateTurnoverIsNotAConflict(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New(), nil)

	if _, err := svc.Create(ctx, bookingDraft(core.NewDate(2025, time.June, 1), core.NewDate(2025, time.June, 10))); err != nil {
		t.Fatalf("first stay: %v", err)
	}
	if _, err := svc.Create(ctx, bookingDraft(core.NewDate(2025, time.June, 10), core.NewDate(2025, time.June, 14))); err != nil {
		t.Fatalf("back-to-back stay on the checkout day must be allowed, got %v", err)
	}
}

func TestCreateEditReplacesWholeRecord(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New(), nil)

	first, err := svc.Create(ctx, bookingDraft(core.NewDate(2025, time.June, 1), core.NewDate(2025, time.June, 8)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	edit := bookingDraft(core.NewDate(2025, time.June, 2), core.NewDate(2025, time.June, 9))
	edit.ID = first.ID
	updated, err := svc.Create(ctx, edit)
	if err != nil {
		t.Fatalf("edit overlapping its own prior range must pass: %v", err)
	}
	if updated.ID != first.ID {
		t.Fatalf("edit changed the id: %s -> %s", first.ID, updated.ID)
	}

	snap := svc.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("snapshot has %d records after edit, want 1", len(snap))
	}
	if !snap[0].Booking.StartDate.Equal(core.NewDate(2025, time.June, 2)) {
		t.Fatalf("snapshot still holds the old record")
	}
}

func TestCreatePersistenceFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	notifier := &countingNotifier{}
	svc := NewService(store, notifier)

	store.FailAppends(errors.New("disk full"))
	_, err := svc.Create(ctx, bookingDraft(core.NewDate(2025, time.June, 1), core.NewDate(2025, time.June, 8)))
	if !errors.Is(err, ErrPersistenceFailure) {
		t.Fatalf("got %v, want ErrPersistenceFailure", err)
	}
	if len(svc.Snapshot()) != 0 {
		t.Fatalf("failed append must not touch the snapshot")
	}
	if notifier.calls != 0 {
		t.Fatalf("failed append must not notify")
	}
}

func TestReloadReplacesAndResurrectsLocalDeletes(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewService(store, nil)

	tx, err := svc.Create(ctx, bookingDraft(core.NewDate(2025, time.June, 1), core.NewDate(2025, time.June, 8)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if !svc.Delete(tx.ID) {
		t.Fatalf("local delete should report success")
	}
	if len(svc.Snapshot()) != 0 {
		t.Fatalf("snapshot should be empty after local delete")
	}

	// The durable row survives; a reload brings it back wholesale.
	if err := svc.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(svc.Snapshot()) != 1 {
		t.Fatalf("reload must resurrect the persisted row")
	}
}

func TestReloadIdempotentOrder(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	store.Seed([]core.Transaction{
		{ID: "a", Date: core.NewDate(2025, time.June, 1), Description: "x", Category: core.Charges, Type: core.Expense, Amount: 10},
		{ID: "b", Date: core.NewDate(2025, time.July, 1), Description: "y", Category: core.Charges, Type: core.Expense, Amount: 20},
		{ID: "c", Date: core.NewDate(2025, time.May, 1), Description: "z", Category: core.Charges, Type: core.Expense, Amount: 30},
	})
	svc := NewService(store, nil)

	if err := svc.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	first := svc.Snapshot()
	if err := svc.Reload(ctx); err != nil {
		t.Fatalf("second reload: %v", err)
	}
	second := svc.Snapshot()

	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("expected 3 records, got %d then %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("reload order not idempotent at %d: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
	if first[0].ID != "b" || first[1].ID != "a" || first[2].ID != "c" {
		t.Fatalf("snapshot not date-descending: %s %s %s", first[0].ID, first[1].ID, first[2].ID)
	}
}

func TestRestoreAbortsOnMalformedRecord(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewService(store, nil)

	batch := []core.Transaction{
		{ID: "ok", Date: core.NewDate(2025, time.June, 1), Description: "Eau", Category: core.Charges, Type: core.Expense, Amount: 10},
		{ID: "bad", Date: core.NewDate(2025, time.June, 2), Description: "x", Category: "Piscine", Type: core.Expense, Amount: 10},
	}
	if _, err := svc.Restore(ctx, batch); err == nil {
		t.Fatalf("expected restore to abort on invalid record")
	}
	rows, _ := store.LoadAll(ctx)
	if len(rows) != 0 {
		t.Fatalf("aborted restore must not write any record, got %d", len(rows))
	}
}

func almostEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-9
}
