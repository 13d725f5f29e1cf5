package rest

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/samu-svg/debt-wise-flow-sub001/internal/domain"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// phonePattern requires the full international form: a '+' followed by
// exactly 13 digits (country code + area + number), no separators.
var phonePattern = regexp.MustCompile(`^\+\d{13}$`)

func validatePhone(phone string) *ValidationError {
	if phone == "" {
		return &ValidationError{Field: "phone", Message: "phone is required"}
	}
	if !phonePattern.MatchString(phone) {
		return &ValidationError{Field: "phone", Message: "phone must match +<countrycode><area><number> with exactly 13 digits after '+'"}
	}
	return nil
}

type NotifyRequest struct {
	Phone        string         `json:"phone"`
	Name         string         `json:"name"`
	Flow         string         `json:"flow"`
	CustomFields map[string]any `json:"customFields"`
}

// ValidateNotifyRequest decodes and validates the single-debtor notify
// payload, accumulating every violation into details.
func ValidateNotifyRequest(r *http.Request) (*NotifyRequest, []string) {
	var req NotifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, []string{"body must be valid JSON"}
	}

	var details []string
	if err := validatePhone(req.Phone); err != nil {
		details = append(details, err.Message)
	}
	if strings.TrimSpace(req.Name) == "" {
		details = append(details, "name is required")
	}
	if strings.TrimSpace(req.Flow) == "" {
		details = append(details, "flow is required")
	}
	if len(details) > 0 {
		return nil, details
	}

	if req.CustomFields == nil {
		req.CustomFields = map[string]any{}
	}
	return &req, nil
}

type ClientRequest struct {
	Name       string  `json:"name"`
	Phone      string  `json:"phone"`
	DebtAmount float64 `json:"debt_amount"`
	DueDate    string  `json:"due_date"`
	Status     string  `json:"status,omitempty"`
}

func ValidateClientRequest(r *http.Request) (*domain.Client, error) {
	var req ClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, &ValidationError{Field: "body", Message: "body must be valid JSON"}
	}

	if strings.TrimSpace(req.Name) == "" {
		return nil, &ValidationError{Field: "name", Message: "name is required"}
	}
	if err := validatePhone(req.Phone); err != nil {
		return nil, err
	}
	if req.DebtAmount < 0 {
		return nil, &ValidationError{Field: "debt_amount", Message: "debt_amount must not be negative"}
	}

	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		return nil, &ValidationError{Field: "due_date", Message: "due_date must be YYYY-MM-DD"}
	}

	status := domain.ClientStatusPending
	if req.Status != "" {
		status = domain.ClientStatus(req.Status)
		if status != domain.ClientStatusPending && status != domain.ClientStatusPaid {
			return nil, &ValidationError{Field: "status", Message: "status must be pending or paid"}
		}
	}

	return &domain.Client{
		Name:       strings.TrimSpace(req.Name),
		Phone:      req.Phone,
		DebtAmount: req.DebtAmount,
		DueDate:    dueDate,
		Status:     status,
	}, nil
}

type TemplateRequest struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
	Body   string `json:"body"`
	Active *bool  `json:"active,omitempty"`
}

func ValidateTemplateRequest(r *http.Request) (*domain.MessageTemplate, error) {
	var req TemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, &ValidationError{Field: "body", Message: "body must be valid JSON"}
	}

	bucket := domain.Bucket(req.Bucket)
	if !bucket.Valid() {
		return nil, &ValidationError{Field: "bucket", Message: "bucket must be one of pre_due_3d, due_today, overdue_1d, overdue_7d"}
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, &ValidationError{Field: "name", Message: "name is required"}
	}
	if strings.TrimSpace(req.Body) == "" {
		return nil, &ValidationError{Field: "body", Message: "body is required"}
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	return &domain.MessageTemplate{
		Bucket: bucket,
		Name:   strings.TrimSpace(req.Name),
		Body:   req.Body,
		Active: active,
	}, nil
}

type ConnectionRequest struct {
	AccessToken       string `json:"access_token"`
	PhoneNumberID     string `json:"phone_number_id"`
	BusinessAccountID string `json:"business_account_id"`
}

func ValidateConnectionRequest(r *http.Request) (*ConnectionRequest, error) {
	var req ConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, &ValidationError{Field: "body", Message: "body must be valid JSON"}
	}

	if len(req.AccessToken) < 20 {
		return nil, &ValidationError{Field: "access_token", Message: "access_token looks too short"}
	}
	if req.PhoneNumberID == "" || strings.Trim(req.PhoneNumberID, "0123456789") != "" {
		return nil, &ValidationError{Field: "phone_number_id", Message: "phone_number_id must be numeric"}
	}

	return &req, nil
}

type ReportRequest struct {
	Fields []string `json:"fields"`
	Bucket *string  `json:"bucket,omitempty"`
	Status *string  `json:"status,omitempty"`
	From   *string  `json:"from,omitempty"`
	To     *string  `json:"to,omitempty"`
}

func ValidateReportRequest(r *http.Request) (*ReportRequest, error) {
	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, &ValidationError{Field: "body", Message: "body must be valid JSON"}
	}

	if req.Bucket != nil && !domain.Bucket(*req.Bucket).Valid() {
		return nil, &ValidationError{Field: "bucket", Message: "unknown bucket"}
	}
	if req.Status != nil {
		switch domain.SendStatus(*req.Status) {
		case domain.SendStatusSent, domain.SendStatusDelivered, domain.SendStatusError:
		default:
			return nil, &ValidationError{Field: "status", Message: "unknown status"}
		}
	}
	for _, field := range []*string{req.From, req.To} {
		if field == nil {
			continue
		}
		if _, err := time.Parse("2006-01-02", *field); err != nil {
			return nil, &ValidationError{Field: "date", Message: "dates must be YYYY-MM-DD"}
		}
	}

	return &req, nil
}
