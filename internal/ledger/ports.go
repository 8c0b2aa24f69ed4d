package ledger

import (
	"context"
	"errors"

	"github.com/llabyellov/LouerSimple/internal/core"
)

// Ports for outbound collaborators. The core only ever needs load-all,
// append and a change signal; row order coming back from LoadAll carries no
// meaning, the service re-sorts.
type (
	Loader interface {
		LoadAll(ctx context.Context) ([]core.Transaction, error)
	}

	Appender interface {
		Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}

	Store interface {
		Loader
		Appender
	}

	// ChangeNotifier broadcasts a payload-free "ledger changed" signal.
	// Receivers are expected to react with a full reload, never a merge.
	ChangeNotifier interface {
		NotifyChanged(ctx context.Context) error
	}
)

// ErrPersistenceFailure wraps a repository write that did not complete.
// The caller reports it and keeps its form state; nothing retries here.
var ErrPersistenceFailure = errors.New("persistence failure")
