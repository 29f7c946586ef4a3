package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"moneymate/internal/analytics"
	"moneymate/internal/core"
	"moneymate/internal/export"
	"moneymate/internal/log"
	"moneymate/internal/metrics"
	"moneymate/internal/services"
)

type handler struct {
	svc     *services.LedgerService
	log     *log.StructuredLogger
	metrics *metrics.Metrics
	now     func() time.Time
}

func (h *handler) today() core.Date {
	return core.DateOf(h.now())
}

func (h *handler) liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.svc.Ping(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, "storage_unhealthy", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready", "storage": "ok"})
}

func (h *handler) getLedger(w http.ResponseWriter, r *http.Request) {
	l, err := h.svc.Ledger(r.Context(), userIDParam(r))
	if err != nil {
		h.writeServiceError(w, r, log.OpLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// listTransactions returns the latest n transactions, or every one when
// latest is absent or zero.
func (h *handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	n, err := parseIntQuery(r, "latest", 0)
	if err != nil {
		h.writeServiceError(w, r, log.OpLoad, err)
		return
	}
	l, err := h.svc.Ledger(r.Context(), userIDParam(r))
	if err != nil {
		h.writeServiceError(w, r, log.OpLoad, err)
		return
	}
	txs := l.Latest(n)
	writeJSON(w, http.StatusOK, TransactionsResponse{Transactions: txs, Count: len(txs)})
}

func (h *handler) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeServiceError(w, r, log.OpAddExpense, err)
		return
	}

	date := h.today()
	if strings.TrimSpace(req.Date) != "" {
		d, err := parseDateField("date", req.Date)
		if err != nil {
			h.writeServiceError(w, r, log.OpAddExpense, err)
			return
		}
		date = d
	}
	amount, err := req.Amount.parse("amount")
	if err != nil {
		h.writeServiceError(w, r, log.OpAddExpense, err)
		return
	}
	t, err := core.NewTransaction(date, req.Category, amount, req.Note)
	if err != nil {
		h.writeServiceError(w, r, log.OpAddExpense, err)
		return
	}

	t, err = h.svc.AddTransaction(r.Context(), userIDParam(r), t)
	if err != nil {
		h.writeServiceError(w, r, log.OpAddExpense, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *handler) createGoal(w http.ResponseWriter, r *http.Request) {
	var req CreateGoalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeServiceError(w, r, log.OpAddGoal, err)
		return
	}
	target, err := req.TargetAmount.parse("targetAmount")
	if err != nil {
		h.writeServiceError(w, r, log.OpAddGoal, err)
		return
	}
	deadline, err := parseDateField("deadline", req.Deadline)
	if err != nil {
		h.writeServiceError(w, r, log.OpAddGoal, err)
		return
	}
	g, err := core.NewSavingGoal(req.Name, target, deadline)
	if err != nil {
		h.writeServiceError(w, r, log.OpAddGoal, err)
		return
	}

	g, err = h.svc.AddGoal(r.Context(), userIDParam(r), g)
	if err != nil {
		h.writeServiceError(w, r, log.OpAddGoal, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (h *handler) updateGoal(w http.ResponseWriter, r *http.Request) {
	var req UpdateGoalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeServiceError(w, r, log.OpSetGoalDone, err)
		return
	}
	if req.Done == nil {
		h.writeServiceError(w, r, log.OpSetGoalDone, fmt.Errorf("%w: done is required", errBadRequest))
		return
	}

	g, err := h.svc.SetGoalDone(r.Context(), userIDParam(r), chi.URLParam(r, "goalID"), *req.Done)
	if err != nil {
		h.writeServiceError(w, r, log.OpSetGoalDone, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *handler) setAllowance(w http.ResponseWriter, r *http.Request) {
	var req SetAllowanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeServiceError(w, r, log.OpSetAllowance, err)
		return
	}
	amount, err := req.MonthlyAllowance.parse("monthlyAllowance")
	if err != nil {
		h.writeServiceError(w, r, log.OpSetAllowance, err)
		return
	}

	cfg, err := h.svc.SetAllowance(r.Context(), userIDParam(r), amount)
	if err != nil {
		h.writeServiceError(w, r, log.OpSetAllowance, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *handler) createRecurring(w http.ResponseWriter, r *http.Request) {
	var req CreateRecurringRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeServiceError(w, r, log.OpAddRecurring, err)
		return
	}
	amount, err := req.Amount.parse("amount")
	if err != nil {
		h.writeServiceError(w, r, log.OpAddRecurring, err)
		return
	}
	freq, err := core.ParseFrequency(req.Frequency)
	if err != nil {
		h.writeServiceError(w, r, log.OpAddRecurring, &core.ValidationError{Field: "frequency", Err: err})
		return
	}
	rec, err := core.NewRecurringExpense(req.Category, amount, freq, req.Note)
	if err != nil {
		h.writeServiceError(w, r, log.OpAddRecurring, err)
		return
	}

	rec, err = h.svc.AddRecurring(r.Context(), userIDParam(r), rec)
	if err != nil {
		h.writeServiceError(w, r, log.OpAddRecurring, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *handler) createOwing(w http.ResponseWriter, r *http.Request) {
	var req CreateOwingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeServiceError(w, r, log.OpAddOwing, err)
		return
	}
	kind, err := core.ParseOwingType(req.Type)
	if err != nil {
		h.writeServiceError(w, r, log.OpAddOwing, &core.ValidationError{Field: "type", Err: err})
		return
	}
	amount, err := req.Amount.parse("amount")
	if err != nil {
		h.writeServiceError(w, r, log.OpAddOwing, err)
		return
	}
	o, err := core.NewOwingRecord(kind, req.Person, amount, req.Note)
	if err != nil {
		h.writeServiceError(w, r, log.OpAddOwing, err)
		return
	}

	o, err = h.svc.AddOwing(r.Context(), userIDParam(r), o)
	if err != nil {
		h.writeServiceError(w, r, log.OpAddOwing, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

// selectedScope reads the insights month from the query:
// scope=this (default), scope=last, or scope=custom with year and month.
// month=YYYY-MM on its own is shorthand for a custom month.
func (h *handler) selectedScope(r *http.Request) (analytics.Scope, error) {
	today := h.today()
	q := r.URL.Query()
	scope := strings.ToLower(strings.TrimSpace(q.Get("scope")))
	month := strings.TrimSpace(q.Get("month"))

	switch {
	case scope == "" && month == "", scope == "this":
		return analytics.ThisMonth(today), nil
	case scope == "last":
		return analytics.LastMonth(today), nil
	case scope == "" && strings.Contains(month, "-"):
		return analytics.ParseMonth(month)
	case scope == "" || scope == "custom":
		year, err := parseIntQuery(r, "year", today.Year())
		if err != nil {
			return analytics.Scope{}, err
		}
		m, err := parseIntQuery(r, "month", today.Month())
		if err != nil {
			return analytics.Scope{}, err
		}
		return analytics.CustomMonth(year, m)
	default:
		return analytics.Scope{}, fmt.Errorf("%w: scope must be this, last or custom", errBadRequest)
	}
}

func (h *handler) dashboard(w http.ResponseWriter, r *http.Request) {
	selected, err := h.selectedScope(r)
	if err != nil {
		h.writeServiceError(w, r, log.OpDashboard, err)
		return
	}
	report, err := h.svc.Dashboard(r.Context(), userIDParam(r), h.today(), selected)
	if err != nil {
		h.writeServiceError(w, r, log.OpDashboard, err)
		return
	}
	writeJSON(w, http.StatusOK, newDashboardResponse(report))
}

func (h *handler) insights(w http.ResponseWriter, r *http.Request) {
	selected, err := h.selectedScope(r)
	if err != nil {
		h.writeServiceError(w, r, log.OpDashboard, err)
		return
	}
	mi, err := h.svc.MonthInsights(r.Context(), userIDParam(r), selected)
	if err != nil {
		h.writeServiceError(w, r, log.OpDashboard, err)
		return
	}
	writeJSON(w, http.StatusOK, mi)
}

func (h *handler) exportMonth(w http.ResponseWriter, r *http.Request) {
	selected, err := h.selectedScope(r)
	if err != nil {
		h.writeServiceError(w, r, log.OpExport, err)
		return
	}
	f, err := h.svc.ExportMonth(r.Context(), userIDParam(r), selected.Year, selected.Month)
	if err != nil {
		h.writeServiceError(w, r, log.OpExport, err)
		return
	}

	w.Header().Set("Content-Type", f.MIMEType+"; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+f.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(f.Data)
}

// importCSV appends every row of an exported file. A single bad row rejects
// the whole upload.
func (h *handler) importCSV(w http.ResponseWriter, r *http.Request) {
	txs, err := export.ParseCSV(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.writeServiceError(w, r, log.OpImport, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	n, err := h.svc.Import(r.Context(), userIDParam(r), txs)
	if err != nil {
		h.writeServiceError(w, r, log.OpImport, err)
		return
	}
	writeJSON(w, http.StatusCreated, ImportResponse{Imported: n})
}
