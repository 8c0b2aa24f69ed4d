// Package export implements the flat-file surfaces of the ledger: an
// Excel-friendly French CSV and a raw JSON backup, both round-trippable
// back into the transaction collection.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/llabyellov/LouerSimple/internal/core"
)

// utf8BOM forces Excel to detect the encoding and render accents.
const utf8BOM = "\uFEFF"

// frDateLayout is the dd/mm/yyyy form French spreadsheets expect.
const frDateLayout = "02/01/2006"

// CSVHeaders are the fixed French column names, in export order.
var CSVHeaders = []string{
	"Date",
	"Description",
	"Catégorie",
	"Type",
	"Montant Net (€)",
	"Adultes",
	"Enfants",
	"Nuits",
	"Prix Brut/Nuit (€)",
}

// WriteCSV renders the collection as a ;-delimited, decimal-comma CSV with
// a UTF-8 BOM and CRLF line endings.
func WriteCSV(w io.Writer, transactions []core.Transaction) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'
	cw.UseCRLF = true

	if err := cw.Write(CSVHeaders); err != nil {
		return fmt.Errorf("write headers: %w", err)
	}
	for _, t := range transactions {
		row := []string{
			t.Date.Format(frDateLayout),
			// A semicolon inside the description would break the columns.
			strings.ReplaceAll(t.Description, ";", ","),
			string(t.Category),
			string(t.Type),
			decimalComma(t.Amount),
			"0", "0", "0", "0",
		}
		if b := t.Booking; b != nil {
			row[5] = strconv.Itoa(b.Adults)
			row[6] = strconv.Itoa(b.Children)
			row[7] = strconv.Itoa(b.Nights)
			row[8] = decimalComma(b.PricePerNight)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses an exported CSV back into transactions. Identifiers and
// rate overrides are not part of the CSV shape, so ids are reassigned and
// rates fall back to defaults; everything else round-trips.
func ReadCSV(r io.Reader) ([]core.Transaction, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte(utf8BOM))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = ';'
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	if len(records) == 0 || len(records[0]) != len(CSVHeaders) {
		return nil, fmt.Errorf("%w: unexpected column layout", ErrMalformedImport)
	}

	var out []core.Transaction
	for i, rec := range records[1:] {
		t, err := parseCSVRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedImport, i+2, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func parseCSVRecord(rec []string) (core.Transaction, error) {
	if len(rec) != len(CSVHeaders) {
		return core.Transaction{}, fmt.Errorf("expected %d columns, got %d", len(CSVHeaders), len(rec))
	}

	day, err := time.Parse(frDateLayout, rec[0])
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse date %q: %v", rec[0], err)
	}
	amount, err := parseDecimalComma(rec[4])
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount %q: %v", rec[4], err)
	}

	t := core.Transaction{
		ID:          uuid.NewString(),
		Date:        core.Date{Time: day},
		Description: rec[1],
		Category:    core.Category(rec[2]),
		Type:        core.TransactionType(rec[3]),
		Amount:      amount,
	}

	if t.Category == core.Loyer {
		adults, _ := strconv.Atoi(rec[5])
		children, _ := strconv.Atoi(rec[6])
		nights, _ := strconv.Atoi(rec[7])
		price, err := parseDecimalComma(rec[8])
		if err != nil {
			return core.Transaction{}, fmt.Errorf("parse nightly price %q: %v", rec[8], err)
		}
		t.Booking = &core.BookingDetails{
			StartDate:     t.Date,
			EndDate:       core.Date{Time: day.AddDate(0, 0, nights)},
			Adults:        adults,
			Children:      children,
			Nights:        nights,
			PricePerNight: price,
		}
	}

	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func decimalComma(v float64) string {
	return strings.ReplaceAll(strconv.FormatFloat(v, 'f', -1, 64), ".", ",")
}

func parseDecimalComma(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
}
