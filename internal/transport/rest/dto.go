package rest

import (
	"github.com/samu-svg/debt-wise-flow-sub001/internal/domain"
)

// Response shaping lives here so the domain structs stay serialization-free.

func clientJSON(c domain.Client) map[string]interface{} {
	return map[string]interface{}{
		"id":          c.ID,
		"name":        c.Name,
		"phone":       c.Phone,
		"debt_amount": c.DebtAmount,
		"due_date":    c.DueDate.Format("2006-01-02"),
		"status":      c.Status,
		"created_at":  c.CreatedAt,
		"updated_at":  c.UpdatedAt,
	}
}

func clientsJSON(list []domain.Client) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(list))
	for _, c := range list {
		out = append(out, clientJSON(c))
	}
	return out
}

func templateJSON(t domain.MessageTemplate) map[string]interface{} {
	return map[string]interface{}{
		"id":         t.ID,
		"bucket":     t.Bucket,
		"name":       t.Name,
		"body":       t.Body,
		"active":     t.Active,
		"created_at": t.CreatedAt,
		"updated_at": t.UpdatedAt,
	}
}

func templatesJSON(list []domain.MessageTemplate) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(list))
	for _, t := range list {
		out = append(out, templateJSON(t))
	}
	return out
}

func attemptJSON(a domain.SendAttempt) map[string]interface{} {
	return map[string]interface{}{
		"id":                  a.ID,
		"client_id":           a.ClientID,
		"client_name":         a.ClientName,
		"client_phone":        a.ClientPhone,
		"bucket":              a.Bucket,
		"template_id":         a.TemplateID,
		"rendered":            a.Rendered,
		"status":              a.Status,
		"provider_message_id": a.ProviderMessageID,
		"error_detail":        a.ErrorDetail,
		"created_at":          a.CreatedAt,
	}
}

func attemptsJSON(list []domain.SendAttempt) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(list))
	for _, a := range list {
		out = append(out, attemptJSON(a))
	}
	return out
}

func eventLogJSON(e domain.EventLog) map[string]interface{} {
	return map[string]interface{}{
		"id":         e.ID,
		"type":       e.Type,
		"detail":     e.Detail,
		"created_at": e.CreatedAt,
	}
}

func eventLogsJSON(list []domain.EventLog) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(list))
	for _, e := range list {
		out = append(out, eventLogJSON(e))
	}
	return out
}
