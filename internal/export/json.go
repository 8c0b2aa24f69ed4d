package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/llabyellov/LouerSimple/internal/core"
)

// ErrMalformedImport means the backup file is not a valid array of
// transaction-shaped records. The whole import aborts; nothing partial
// ever lands in the collection.
var ErrMalformedImport = errors.New("malformed import")

// WriteJSON writes the raw backup: a pretty-printed JSON array matching
// the persisted transaction shape.
func WriteJSON(w io.Writer, transactions []core.Transaction) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if transactions == nil {
		transactions = []core.Transaction{}
	}
	if err := enc.Encode(transactions); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	return nil
}

// ReadJSON parses a backup file back into transactions. Any parse or
// shape failure aborts the whole file with ErrMalformedImport.
func ReadJSON(r io.Reader) ([]core.Transaction, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}

	var transactions []core.Transaction
	if err := json.Unmarshal(data, &transactions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	for i, t := range transactions {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrMalformedImport, i, err)
		}
	}
	return transactions, nil
}
