// Package ledger owns the in-memory transaction collection and its
// lifecycle: validation-before-write, append, local delete and the
// full reload-and-replace policy driven by change notifications.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/llabyellov/LouerSimple/internal/core"
)

// Draft is the user input handed over by a form, before derivation. For a
// Loyer draft the amount, nights and date are derived here, never trusted
// from the caller.
type Draft struct {
	ID          string
	Date        core.Date
	Description string
	Category    core.Category
	Type        core.TransactionType
	Amount      float64
	Booking     *core.BookingDetails
}

// Service holds the snapshot every view reads. All mutations go through
// it; the durable store stays the source of truth and a reload always
// supersedes local state.
type Service struct {
	store    Store
	notifier ChangeNotifier

	mu       sync.RWMutex
	snapshot []core.Transaction
}

func NewService(store Store, notifier ChangeNotifier) *Service {
	return &Service{store: store, notifier: notifier}
}

// Reload replaces the whole snapshot with the current persisted row set.
// No merge, no reconciliation: the last full reload wins. A row whose blob
// no longer parses is skipped with a warning rather than failing the
// reload.
func (s *Service) Reload(ctx context.Context) error {
	loaded, err := s.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	core.SortByDateDesc(loaded)

	s.mu.Lock()
	s.snapshot = loaded
	s.mu.Unlock()

	slog.InfoContext(ctx, "Ledger reloaded", "transactions", len(loaded))
	return nil
}

// Snapshot returns a defensive copy of the collection, newest first.
func (s *Service) Snapshot() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Transaction, len(s.snapshot))
	copy(out, s.snapshot)
	return out
}

// Create validates a draft fail-closed, derives the booking figures, then
// appends the finished transaction and publishes a change signal. Nothing
// is written on any validation failure.
func (s *Service) Create(ctx context.Context, draft Draft) (core.Transaction, error) {
	t := core.Transaction{
		ID:          draft.ID,
		Date:        draft.Date,
		Description: draft.Description,
		Category:    draft.Category,
		Type:        draft.Type,
		Amount:      draft.Amount,
		Booking:     draft.Booking,
	}
	if forced, ok := t.Category.ForcedType(); ok {
		t.Type = forced
	}

	if t.Category == core.Loyer {
		if t.Booking == nil {
			return core.Transaction{}, core.ErrBookingRequired
		}
		if err := core.ValidateOccupants(t.Booking.Adults, t.Booking.Children); err != nil {
			return core.Transaction{}, err
		}
		quote, err := core.QuoteBooking(*t.Booking)
		if err != nil {
			return core.Transaction{}, err
		}
		if core.HasConflict(t.Booking.StartDate, t.Booking.EndDate, s.Snapshot(), draft.ID) {
			return core.Transaction{}, core.ErrBookingConflict
		}
		t.Booking.Nights = quote.Nights
		t.Amount = quote.NetStay
		t.Date = t.Booking.StartDate
		if t.Description == "" {
			t.Description = fmt.Sprintf("Location %d nuits", quote.Nights)
		}
	}

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	ref, err := s.store.Append(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}

	s.mu.Lock()
	replaced := false
	for i := range s.snapshot {
		if s.snapshot[i].ID == t.ID {
			s.snapshot[i] = t
			replaced = true
			break
		}
	}
	if !replaced {
		s.snapshot = append(s.snapshot, t)
	}
	core.SortByDateDesc(s.snapshot)
	s.mu.Unlock()

	slog.InfoContext(ctx, "Transaction recorded",
		"id", t.ID,
		"row_ref", ref,
		"category", string(t.Category),
		"type", string(t.Type),
		"amount", t.Amount)

	s.notifyChanged(ctx)
	return t, nil
}

// Delete removes a transaction from the local snapshot only. The durable
// ledger keeps its row; a reload racing this call can resurrect the entry.
// That is the accepted consistency model, not a defect.
func (s *Service) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.snapshot {
		if s.snapshot[i].ID == id {
			s.snapshot = append(s.snapshot[:i], s.snapshot[i+1:]...)
			slog.Info("Transaction removed locally", "id", id)
			return true
		}
	}
	return false
}

// Clear drops the local snapshot without touching the durable rows.
func (s *Service) Clear() {
	s.mu.Lock()
	s.snapshot = nil
	s.mu.Unlock()
}

// Restore bulk-appends an imported backup. Each record must already be a
// well-formed transaction; the caller aborts the whole file beforehand if
// any record is malformed. One change signal fires at the end.
func (s *Service) Restore(ctx context.Context, transactions []core.Transaction) (int, error) {
	for i, t := range transactions {
		if err := t.Validate(); err != nil {
			return 0, fmt.Errorf("record %d: %w", i, err)
		}
	}
	for i, t := range transactions {
		if _, err := s.store.Append(ctx, t); err != nil {
			return i, fmt.Errorf("%w: record %d: %v", ErrPersistenceFailure, i, err)
		}
	}
	if err := s.Reload(ctx); err != nil {
		return len(transactions), err
	}
	s.notifyChanged(ctx)
	return len(transactions), nil
}

func (s *Service) notifyChanged(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	// Best effort: a lost signal only delays other readers until their
	// next reload, it never rolls back the append.
	if err := s.notifier.NotifyChanged(ctx); err != nil {
		slog.WarnContext(ctx, "Change notification failed", "error", err)
	}
}
