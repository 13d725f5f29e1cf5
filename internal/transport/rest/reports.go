package rest

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/samu-svg/debt-wise-flow-sub001/internal/domain"
	"github.com/samu-svg/debt-wise-flow-sub001/internal/repository"
)

func attemptsFilterFrom(req *ReportRequest) repository.SendAttemptsFilter {
	var f repository.SendAttemptsFilter
	if req.Bucket != nil {
		b := domain.Bucket(*req.Bucket)
		f.Bucket = &b
	}
	if req.Status != nil {
		s := domain.SendStatus(*req.Status)
		f.Status = &s
	}
	if req.From != nil {
		t, _ := time.Parse("2006-01-02", *req.From)
		f.From = &t
	}
	if req.To != nil {
		// Upper bound is exclusive, so include the whole end day.
		t, _ := time.Parse("2006-01-02", *req.To)
		t = t.Add(24 * time.Hour)
		f.To = &t
	}
	return f
}

// StartSendAttemptsReport queues an XLSX extract of the audit log and
// returns its id. Progress is delivered over the websocket channel.
func (h *Handler) StartSendAttemptsReport(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := operatorFrom(w, r)
	if !ok {
		return
	}

	req, err := ValidateReportRequest(r)
	if err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}

	reportID, err := h.deps.Reports.StartSendAttemptsReport(r.Context(), req.Fields, attemptsFilterFrom(req), operatorID)
	if err != nil {
		ErrorInternal(w, "failed to start report")
		return
	}

	SuccessAccepted(w, "report queued", map[string]interface{}{"id": reportID})
}

func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := operatorFrom(w, r)
	if !ok {
		return
	}

	reports, err := h.deps.ReportList.GetReports(r.Context(), operatorID)
	if err != nil {
		ErrorInternal(w, "failed to list reports")
		return
	}
	if reports == nil {
		reports = []interface{}{}
	}

	Success(w, "", reports)
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := operatorFrom(w, r)
	if !ok {
		return
	}

	reportID := chi.URLParam(r, "id")
	if !strings.HasPrefix(reportID, "reports:") {
		reportID = "reports:" + reportID
	}

	report, err := h.deps.ReportList.GetReport(r.Context(), reportID, operatorID)
	if err != nil {
		ErrorNotFound(w, "report not found")
		return
	}

	Success(w, "", report)
}

func parseDayParam(r *http.Request, key string) (time.Time, bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, false, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// SendSummary returns aggregate counters for the dashboard. Defaults to
// today when no range is given.
func (h *Handler) SendSummary(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := operatorFrom(w, r)
	if !ok {
		return
	}

	var from, to time.Time
	if t, set, err := parseDayParam(r, "from"); err != nil {
		ErrorBadRequest(w, "from must be YYYY-MM-DD")
		return
	} else if set {
		from = t
	}
	if t, set, err := parseDayParam(r, "to"); err != nil {
		ErrorBadRequest(w, "to must be YYYY-MM-DD")
		return
	} else if set {
		to = t.Add(24 * time.Hour)
	}

	summary, err := h.deps.Reports.Summarize(r.Context(), operatorID, from, to)
	if err != nil {
		ErrorInternal(w, "failed to summarize attempts")
		return
	}

	Success(w, "", summary)
}

// ListAttempts exposes the raw audit log with the same filters the
// report generator accepts.
func (h *Handler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := operatorFrom(w, r)
	if !ok {
		return
	}

	var f repository.SendAttemptsFilter
	if s := r.URL.Query().Get("bucket"); s != "" {
		b := domain.Bucket(s)
		if !b.Valid() {
			ErrorBadRequest(w, "unknown bucket")
			return
		}
		f.Bucket = &b
	}
	if s := r.URL.Query().Get("status"); s != "" {
		st := domain.SendStatus(s)
		switch st {
		case domain.SendStatusSent, domain.SendStatusDelivered, domain.SendStatusError:
		default:
			ErrorBadRequest(w, "unknown status")
			return
		}
		f.Status = &st
	}
	if t, set, err := parseDayParam(r, "from"); err != nil {
		ErrorBadRequest(w, "from must be YYYY-MM-DD")
		return
	} else if set {
		f.From = &t
	}
	if t, set, err := parseDayParam(r, "to"); err != nil {
		ErrorBadRequest(w, "to must be YYYY-MM-DD")
		return
	} else if set {
		end := t.Add(24 * time.Hour)
		f.To = &end
	}

	attempts, err := h.deps.Attempts.List(r.Context(), operatorID, f)
	if err != nil {
		ErrorInternal(w, "failed to list attempts")
		return
	}
	Success(w, "", attemptsJSON(attempts))
}
