package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/samu-svg/debt-wise-flow-sub001/internal/clients"
	"github.com/samu-svg/debt-wise-flow-sub001/internal/domain"
	"github.com/samu-svg/debt-wise-flow-sub001/internal/repository"
)

const (
	reportSetKey = "report_ids"
	reportTTL    = 20 * time.Minute
)

type ReportStatus struct {
	Key      string    `json:"key"`
	Type     string    `json:"type"`
	Operator int64     `json:"operator_id"`
	Filters  any       `json:"filters"`
	Progress float64   `json:"progress"`
	FileURL  *string   `json:"file_url"`
	Error    *string   `json:"error"`
	Created  time.Time `json:"created_at"`
}

type AttemptLister interface {
	List(ctx context.Context, operatorID int64, f repository.SendAttemptsFilter) ([]domain.SendAttempt, error)
	Summarize(ctx context.Context, operatorID int64, from, to time.Time) (*repository.SendSummary, error)
}

// ReportService builds XLSX extracts of the send-attempt audit log. Files
// are generated asynchronously; progress is tracked in redis and pushed to
// the operator's dashboard over the websocket hub.
type ReportService struct {
	attempts AttemptLister
	redis    *clients.RedisClient
	storage  *clients.StorageClient
	s3       *clients.S3Client
	ws       *clients.WebSocketClient
}

func NewReportService(
	attempts AttemptLister,
	redis *clients.RedisClient,
	storage *clients.StorageClient,
	s3 *clients.S3Client,
	ws *clients.WebSocketClient,
) *ReportService {
	return &ReportService{
		attempts: attempts,
		redis:    redis,
		storage:  storage,
		s3:       s3,
		ws:       ws,
	}
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

type attemptColumn struct {
	Header string
	Value  func(a domain.SendAttempt) any
}

var attemptColumns = map[string]attemptColumn{
	"client.name": {
		Header: "Cliente",
		Value:  func(a domain.SendAttempt) any { return strOrEmpty(a.ClientName) },
	},
	"client.phone": {
		Header: "Telefone",
		Value:  func(a domain.SendAttempt) any { return strOrEmpty(a.ClientPhone) },
	},
	"bucket": {
		Header: "Etapa",
		Value:  func(a domain.SendAttempt) any { return string(a.Bucket) },
	},
	"status": {
		Header: "Status",
		Value:  func(a domain.SendAttempt) any { return string(a.Status) },
	},
	"rendered": {
		Header: "Mensagem",
		Value:  func(a domain.SendAttempt) any { return a.Rendered },
	},
	"provider_message_id": {
		Header: "ID do provedor",
		Value:  func(a domain.SendAttempt) any { return strOrEmpty(a.ProviderMessageID) },
	},
	"error_detail": {
		Header: "Erro",
		Value:  func(a domain.SendAttempt) any { return strOrEmpty(a.ErrorDetail) },
	},
	"created_at": {
		Header: "Enviado em",
		Value:  func(a domain.SendAttempt) any { return a.CreatedAt.Format("2006-01-02 15:04:05") },
	},
}

func (s *ReportService) saveReportStatus(ctx context.Context, st *ReportStatus) error {
	if s.redis == nil {
		return errors.New("redis client not configured")
	}

	data, err := json.Marshal(st)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, st.Key, string(data), reportTTL); err != nil {
		return err
	}
	return s.redis.SAdd(ctx, reportSetKey, st.Key)
}

// StartSendAttemptsReport queues report generation and returns its id
// immediately; the heavy lifting happens in a background goroutine.
func (s *ReportService) StartSendAttemptsReport(
	ctx context.Context,
	selected []string,
	filter repository.SendAttemptsFilter,
	operatorID int64,
) (string, error) {
	if len(selected) == 0 {
		selected = []string{"client.name", "client.phone", "bucket", "status", "created_at"}
	}

	reportID := fmt.Sprintf("reports:%s", uuid.NewString())
	now := time.Now()

	status := &ReportStatus{
		Key:      reportID,
		Type:     "send_attempts",
		Operator: operatorID,
		Filters:  buildAttemptsFiltersMap(filter, selected),
		Progress: 0,
		FileURL:  nil,
		Created:  now,
	}

	_ = s.saveReportStatus(ctx, status)

	go s.runSendAttemptsReport(context.Background(), reportID, selected, filter, operatorID, now)

	return reportID, nil
}

func (s *ReportService) runSendAttemptsReport(
	ctx context.Context,
	reportID string,
	selected []string,
	filter repository.SendAttemptsFilter,
	operatorID int64,
	createdAt time.Time,
) {
	status := &ReportStatus{
		Key:      reportID,
		Type:     "send_attempts",
		Operator: operatorID,
		Filters:  buildAttemptsFiltersMap(filter, selected),
		Progress: 0,
		FileURL:  nil,
		Created:  createdAt,
	}

	fail := func(err error) {
		log.Printf("[REPORT] %s failed: %v", reportID, err)
		msg := err.Error()
		status.Error = &msg
		_ = s.saveReportStatus(ctx, status)
		if s.ws != nil {
			_ = s.ws.NotifyReportFailed(ctx, operatorID, reportID, msg)
		}
	}

	attempts, err := s.attempts.List(ctx, operatorID, filter)
	if err != nil {
		fail(err)
		return
	}

	var cols []attemptColumn
	for _, key := range selected {
		col, ok := attemptColumns[key]
		if !ok {
			continue
		}
		cols = append(cols, col)
	}
	if len(cols) == 0 {
		fail(errors.New("no valid columns selected"))
		return
	}

	f := excelize.NewFile()
	sheet := "SendAttempts"
	f.SetSheetName(f.GetSheetName(0), sheet)

	_ = f.SetDocProps(&excelize.DocProperties{
		Creator: fmt.Sprintf("operator_%d", operatorID),
	})

	for i, col := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, col.Header)
	}

	total := len(attempts)
	chunkSize := 1000
	rowIdx := 2

	for i, a := range attempts {
		for colIdx, col := range cols {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx)
			_ = f.SetCellValue(sheet, cell, col.Value(a))
		}
		rowIdx++

		if (i+1)%chunkSize == 0 || i == total-1 {
			raw := float64(i+1) / float64(total) * 100.0
			progress := math.Round(raw)
			// 100% is reserved for when the file URL is ready.
			if progress >= 100 {
				progress = 95
			}

			status.Progress = progress
			_ = s.saveReportStatus(ctx, status)

			if s.ws != nil {
				_ = s.ws.NotifyReportProgress(ctx, operatorID, reportID, progress, "generating")
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		fail(err)
		return
	}
	data := buf.Bytes()

	fileName := fmt.Sprintf("send_attempts_%s.xlsx", time.Now().Format("20060102_150405"))

	var url string

	if s.s3 != nil {
		status.Progress = 95
		_ = s.saveReportStatus(ctx, status)
		if s.ws != nil {
			_ = s.ws.NotifyReportProgress(ctx, operatorID, reportID, 95, "uploading")
		}

		key, err := s.s3.UploadReport(ctx, fileName, data)
		if err != nil {
			fail(fmt.Errorf("s3 upload: %w", err))
			return
		}
		url, err = s.s3.GetTemporaryURL(ctx, key, 48*time.Hour)
		if err != nil {
			fail(fmt.Errorf("s3 presign: %w", err))
			return
		}
	} else {
		saved, err := s.storage.Save(ctx, fileName, data)
		if err != nil {
			fail(fmt.Errorf("store report: %w", err))
			return
		}
		url = s.storage.GetURL(saved)
	}

	status.FileURL = &url
	status.Progress = 100
	_ = s.saveReportStatus(ctx, status)

	if s.ws != nil {
		_ = s.ws.NotifyReportProgress(ctx, operatorID, reportID, 100, "ready")
		_ = s.ws.NotifyReportComplete(ctx, operatorID, reportID, url, fileName)
	}
}

func buildAttemptsFiltersMap(f repository.SendAttemptsFilter, fields []string) map[string]interface{} {
	m := map[string]interface{}{}
	if f.Bucket != nil {
		m["bucket"] = string(*f.Bucket)
	} else {
		m["bucket"] = nil
	}
	if f.Status != nil {
		m["status"] = string(*f.Status)
	} else {
		m["status"] = nil
	}
	if f.From != nil {
		m["from"] = f.From.Format("2006-01-02")
	} else {
		m["from"] = nil
	}
	if f.To != nil {
		m["to"] = f.To.Format("2006-01-02")
	} else {
		m["to"] = nil
	}
	m["fields"] = fields
	return m
}

// Summary aggregates send-attempt counters for the dashboard.
type Summary struct {
	Total     int64                   `json:"total"`
	Sent      int64                   `json:"sent"`
	Delivered int64                   `json:"delivered"`
	Errors    int64                   `json:"errors"`
	ByBucket  map[domain.Bucket]int64 `json:"by_bucket"`
}

// Summarize returns counters for [from, to); zero times default to today.
func (s *ReportService) Summarize(ctx context.Context, operatorID int64, from, to time.Time) (*Summary, error) {
	if from.IsZero() || to.IsZero() {
		now := time.Now().UTC()
		from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		to = from.Add(24 * time.Hour)
	}

	agg, err := s.attempts.Summarize(ctx, operatorID, from, to)
	if err != nil {
		return nil, err
	}

	return &Summary{
		Total:     agg.Total,
		Sent:      agg.Sent,
		Delivered: agg.Delivered,
		Errors:    agg.Errors,
		ByBucket:  agg.ByBucket,
	}, nil
}
