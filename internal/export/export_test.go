package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llabyellov/LouerSimple/internal/core"
)

func sampleTransactions() []core.Transaction {
	return []core.Transaction{
		{
			ID:          "r1",
			Date:        core.NewDate(2025, time.June, 1),
			Description: "Location 7 nuits",
			Category:    core.Loyer,
			Type:        core.Revenue,
			Amount:      704.06,
			Booking: &core.BookingDetails{
				StartDate:     core.NewDate(2025, time.June, 1),
				EndDate:       core.NewDate(2025, time.June, 8),
				Adults:        2,
				Children:      1,
				Nights:        7,
				PricePerNight: 120,
			},
		},
		{
			ID:          "e1",
			Date:        core.NewDate(2025, time.June, 3),
			Description: "Facture eau; relevé juin",
			Category:    core.Charges,
			Type:        core.Expense,
			Amount:      40.5,
		},
	}
}

func TestWriteCSVShape(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleTransactions()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\uFEFF"), "missing UTF-8 BOM")

	lines := strings.Split(strings.TrimRight(out, "\r\n"), "\r\n")
	require.Len(t, lines, 3)

	assert.Equal(t, "\uFEFF"+"Date;Description;Catégorie;Type;Montant Net (€);Adultes;Enfants;Nuits;Prix Brut/Nuit (€)", lines[0])
	assert.Equal(t, "01/06/2025;Location 7 nuits;Loyer;REVENUE;704,06;2;1;7;120", lines[1])
	// Semicolons in descriptions are flattened to commas; non-booking rows
	// carry zeroed booking columns.
	assert.Equal(t, "03/06/2025;Facture eau, relevé juin;Charges;EXPENSE;40,5;0;0;0;0", lines[2])
}

func TestCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	original := sampleTransactions()
	require.NoError(t, WriteCSV(&buf, original))

	back, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Len(t, back, 2)

	booking := back[0]
	assert.Equal(t, core.Loyer, booking.Category)
	assert.Equal(t, core.Revenue, booking.Type)
	assert.InDelta(t, 704.06, booking.Amount, 1e-9)
	require.NotNil(t, booking.Booking)
	assert.Equal(t, 7, booking.Booking.Nights)
	assert.Equal(t, 2, booking.Booking.Adults)
	assert.Equal(t, 1, booking.Booking.Children)
	assert.InDelta(t, 120, booking.Booking.PricePerNight, 1e-9)
	assert.True(t, booking.Date.Equal(core.NewDate(2025, time.June, 1)))
	assert.True(t, booking.Booking.EndDate.Equal(core.NewDate(2025, time.June, 8)))

	expense := back[1]
	assert.Equal(t, core.Charges, expense.Category)
	assert.Nil(t, expense.Booking)
	assert.InDelta(t, 40.5, expense.Amount, 1e-9)
}

func TestReadCSVRejectsBrokenLayout(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("Date;Description\n01/06/2025;x\n"))
	assert.ErrorIs(t, err, ErrMalformedImport)
}

func TestJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	original := sampleTransactions()
	require.NoError(t, WriteJSON(&buf, original))

	back, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, original, back)
}

func TestReadJSONAbortsWholeFile(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"not json", "{definitely not json"},
		{"not an array", `{"id":"x"}`},
		{"invalid record shape", `[{"id":"a","date":"2025-06-01","description":"x","category":"Piscine","type":"EXPENSE","amount":1}]`},
		{"loyer without booking", `[{"id":"a","date":"2025-06-01","description":"x","category":"Loyer","type":"REVENUE","amount":1}]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ReadJSON(strings.NewReader(tc.input))
			assert.ErrorIs(t, err, ErrMalformedImport)
			assert.Nil(t, got)
		})
	}
}

func TestWriteJSONEmptyCollection(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}
