package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/llabyellov/LouerSimple/internal/core"
	"github.com/llabyellov/LouerSimple/internal/export"
	"github.com/llabyellov/LouerSimple/internal/ledger"
)

const maxImportBody = 8 << 20 // 8 MiB

// parsePeriodFilter reads the shared year/month query pair every view
// endpoint accepts. Absent or "all" means wildcard; month is zero-based.
func parsePeriodFilter(r *http.Request) (core.PeriodFilter, error) {
	f := core.PeriodFilter{Year: core.All, Month: core.All}

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" && !strings.EqualFold(v, "all") {
		y, err := strconv.Atoi(v)
		if err != nil {
			return f, fmt.Errorf("invalid year %q", v)
		}
		f.Year = y
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" && !strings.EqualFold(v, "all") {
		m, err := strconv.Atoi(v)
		if err != nil || m < 0 || m > 11 {
			return f, fmt.Errorf("invalid month %q: must be 0-11 or 'all'", v)
		}
		f.Month = m
	}
	return f, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Response encoding failed", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeDomainError maps sentinel errors onto HTTP statuses. Conflicts get
// 409, persistence trouble 502, everything validation-shaped 400.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, core.ErrBookingConflict):
		status = http.StatusConflict
	case errors.Is(err, ledger.ErrPersistenceFailure):
		status = http.StatusBadGateway
	case errors.Is(err, core.ErrOccupancyLimitExceeded),
		errors.Is(err, core.ErrIncompleteBooking),
		errors.Is(err, core.ErrUnknownCategory),
		errors.Is(err, core.ErrCategoryTypeMismatch),
		errors.Is(err, core.ErrBookingRequired),
		errors.Is(err, core.ErrBookingNotAllowed),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, export.ErrMalformedImport):
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
	}

	if status >= 500 {
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "url", r.URL.Path)
	} else {
		slog.WarnContext(r.Context(), "Request rejected", "error", err, "url", r.URL.Path)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := parsePeriodFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	category := core.Category(strings.TrimSpace(r.URL.Query().Get("category")))
	if category != "" && !category.Valid() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("unknown category %q", category)})
		return
	}
	query := r.URL.Query().Get("q")

	items := core.FilterList(s.service.Snapshot(), f, category, query)
	if items == nil {
		items = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, items)
}

type createTransactionRequest struct {
	ID          string               `json:"id"`
	Date        core.Date            `json:"date"`
	Description string               `json:"description"`
	Category    core.Category        `json:"category"`
	Type        core.TransactionType `json:"type"`
	Amount      float64              `json:"amount"`
	Booking     *bookingRequest      `json:"booking"`
}

// bookingRequest carries the raw form values. PricePerNight is a pointer
// so a missing price falls back to the default while zero stays zero.
type bookingRequest struct {
	StartDate     core.Date `json:"startDate"`
	EndDate       core.Date `json:"endDate"`
	Adults        int       `json:"adults"`
	Children      int       `json:"children"`
	PricePerNight *float64  `json:"pricePerNight"`
	FeesRate      *float64  `json:"feesRate"`
	TaxRate       *float64  `json:"taxRate"`
	WaterPerNight *float64  `json:"waterPerNight"`
	ElecPerNight  *float64  `json:"elecPerNight"`
}

func (b *bookingRequest) toDetails() *core.BookingDetails {
	if b == nil {
		return nil
	}
	price := core.DefaultPricePerNight
	if b.PricePerNight != nil {
		price = *b.PricePerNight
	}
	return &core.BookingDetails{
		StartDate:     b.StartDate,
		EndDate:       b.EndDate,
		Adults:        b.Adults,
		Children:      b.Children,
		PricePerNight: price,
		FeesRate:      b.FeesRate,
		TaxRate:       b.TaxRate,
		WaterPerNight: b.WaterPerNight,
		ElecPerNight:  b.ElecPerNight,
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	created, err := s.service.Create(r.Context(), ledger.Draft{
		ID:          strings.TrimSpace(req.ID),
		Date:        req.Date,
		Description: strings.TrimSpace(req.Description),
		Category:    req.Category,
		Type:        req.Type,
		Amount:      req.Amount,
		Booking:     req.Booking.toDetails(),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.service.Delete(id) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "transaction not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type dashboardResponse struct {
	Filter  periodView         `json:"filter"`
	Totals  core.Totals        `json:"totals"`
	Monthly core.MonthlySeries `json:"monthly"`
}

type analysisResponse struct {
	Filter    periodView            `json:"filter"`
	Totals    core.Totals           `json:"totals"`
	Breakdown []core.CategoryAmount `json:"breakdown"`
}

// periodView echoes the applied filter so clients can label the view.
// A wildcard axis renders as "all".
type periodView struct {
	Year  string `json:"year"`
	Month string `json:"month"`
}

func toPeriodView(f core.PeriodFilter) periodView {
	v := periodView{Year: "all", Month: "all"}
	if f.Year != core.All {
		v.Year = strconv.Itoa(f.Year)
	}
	if f.Month != core.All {
		v.Month = strconv.Itoa(f.Month)
	}
	return v
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	f, err := parsePeriodFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	snapshot := s.service.Snapshot()
	writeJSON(w, http.StatusOK, dashboardResponse{
		Filter: toPeriodView(f),
		Totals: core.ComputeTotals(core.FilterByPeriod(snapshot, f)),
		// The monthly chart ignores any month scope: it always spans the
		// twelve months of the filtered year.
		Monthly: core.ComputeMonthlySeries(snapshot, f.Year),
	})
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	f, err := parsePeriodFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	subset := core.FilterByPeriod(s.service.Snapshot(), f)
	resp := analysisResponse{
		Filter:    toPeriodView(f),
		Totals:    core.ComputeTotals(subset),
		Breakdown: core.CategoryBreakdown(subset),
	}
	if resp.Breakdown == nil {
		resp.Breakdown = []core.CategoryAmount{}
	}
	writeJSON(w, http.StatusOK, resp)
}

type calendarDay struct {
	Day        int    `json:"day"`
	Date       string `json:"date"`
	IsStarting bool   `json:"isStarting"`
	IsEnding   bool   `json:"isEnding"`
	IsOngoing  bool   `json:"isOngoing"`
	Selectable bool   `json:"selectable"`
	BookingID  string `json:"bookingId,omitempty"`
}

type calendarResponse struct {
	Year  int           `json:"year"`
	Month int           `json:"month"` // zero-based
	Days  []calendarDay `json:"days"`
}

// handleCalendar renders the per-day occupancy grid of one concrete
// month. Year and month default to the current date; "all" makes no
// sense here and is rejected.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	year := now.Year()
	month := int(now.Month()) - 1

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid year %q", v)})
			return
		}
		year = y
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 0 || m > 11 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid month %q: must be 0-11", v)})
			return
		}
		month = m
	}

	snapshot := s.service.Snapshot()
	first := core.NewDate(year, time.Month(month+1), 1)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	resp := calendarResponse{Year: year, Month: month}
	for d := 1; d <= daysInMonth; d++ {
		day := core.NewDate(year, time.Month(month+1), d)
		status := core.DayOccupancy(day, snapshot)
		cd := calendarDay{
			Day:        d,
			Date:       day.String(),
			IsStarting: status.IsStarting,
			IsEnding:   status.IsEnding,
			IsOngoing:  status.IsOngoing,
			Selectable: core.CanStartStay(day, snapshot),
		}
		if status.Booking != nil {
			cd.BookingID = status.Booking.ID
		}
		resp.Days = append(resp.Days, cd)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	if err := export.WriteCSV(w, s.service.Snapshot()); err != nil {
		slog.ErrorContext(r.Context(), "CSV export failed", "error", err)
	}
}

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.json"`)
	if err := export.WriteJSON(w, s.service.Snapshot()); err != nil {
		slog.ErrorContext(r.Context(), "JSON export failed", "error", err)
	}
}

type importResponse struct {
	Restored int `json:"restored"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	transactions, err := export.ReadJSON(http.MaxBytesReader(w, r.Body, maxImportBody))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	n, err := s.service.Restore(r.Context(), transactions)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, importResponse{Restored: n})
}

type quoteRequest struct {
	StartDate     core.Date `json:"startDate"`
	EndDate       core.Date `json:"endDate"`
	PricePerNight *float64  `json:"pricePerNight"`
	FeesRate      *float64  `json:"feesRate"`
	TaxRate       *float64  `json:"taxRate"`
	WaterPerNight *float64  `json:"waterPerNight"`
	ElecPerNight  *float64  `json:"elecPerNight"`
}

// handleQuote is the reactive-recalculation surface of the booking form:
// it echoes the full breakdown for the given inputs without persisting
// anything. An incomplete range yields an all-zero quote, not an error,
// so a half-filled form can still render.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	b := core.BookingDetails{
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		PricePerNight: core.DefaultPricePerNight,
		FeesRate:      req.FeesRate,
		TaxRate:       req.TaxRate,
		WaterPerNight: req.WaterPerNight,
		ElecPerNight:  req.ElecPerNight,
	}
	if req.PricePerNight != nil {
		b.PricePerNight = *req.PricePerNight
	}

	quote, err := core.QuoteBooking(b)
	if err != nil && !errors.Is(err, core.ErrIncompleteBooking) {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}
