package clients

import (
	"context"
	"fmt"

	ws "github.com/samu-svg/debt-wise-flow-sub001/internal/transport/websocket"
)

// WebSocketClient pushes operator-facing notifications through the hub.
type WebSocketClient struct {
	hub *ws.Hub
}

func NewWebSocketClient(hub *ws.Hub) *WebSocketClient {
	return &WebSocketClient{
		hub: hub,
	}
}

// NotifyAutomationSummary announces the end-of-run counters of one
// collection pass.
func (c *WebSocketClient) NotifyAutomationSummary(ctx context.Context, operatorID int64, processed, sent, failed int) {
	if c.hub == nil {
		return
	}

	message := &ws.Message{
		Type:    "automation_summary",
		Channel: fmt.Sprintf("automation#%d", operatorID),
		Data: map[string]interface{}{
			"processed": processed,
			"sent":      sent,
			"failed":    failed,
		},
	}

	c.hub.Broadcast(operatorID, message)
}

func (c *WebSocketClient) NotifyReportProgress(
	ctx context.Context,
	operatorID int64,
	reportID string,
	progress float64,
	stage string,
) error {
	if c.hub == nil {
		return nil
	}

	data := map[string]interface{}{
		"id":       reportID,
		"progress": progress,
	}
	if stage != "" {
		data["stage"] = stage
	}

	message := &ws.Message{
		Type:    "report_progress",
		Channel: fmt.Sprintf("report_progress#%d", operatorID),
		Data:    data,
	}

	c.hub.Broadcast(operatorID, message)
	return nil
}

func (c *WebSocketClient) NotifyReportComplete(
	ctx context.Context,
	operatorID int64,
	reportID string,
	url string,
	filename string,
) error {
	if c.hub == nil {
		return nil
	}

	message := &ws.Message{
		Type:    "report_complete",
		Channel: fmt.Sprintf("report_complete#%d", operatorID),
		Data: map[string]interface{}{
			"id":          reportID,
			"url":         url,
			"filename":    filename,
			"operator_id": operatorID,
		},
	}

	c.hub.Broadcast(operatorID, message)
	return nil
}

// NotifyReportFailed tells the operator a report generation failed.
func (c *WebSocketClient) NotifyReportFailed(ctx context.Context, operatorID int64, reportID string, errMsg string) error {
	if c.hub == nil {
		return nil
	}

	message := &ws.Message{
		Type:    "report_failed",
		Channel: fmt.Sprintf("report_failed#%d", operatorID),
		Data: map[string]interface{}{
			"id":          reportID,
			"message":     errMsg,
			"operator_id": operatorID,
		},
	}

	c.hub.Broadcast(operatorID, message)
	return nil
}

// NotifyHealthChange pushes the latest connection-health snapshot.
func (c *WebSocketClient) NotifyHealthChange(ctx context.Context, operatorID int64, healthy bool, errorRate float64) {
	if c.hub == nil {
		return
	}

	message := &ws.Message{
		Type:    "connection_health",
		Channel: fmt.Sprintf("connection#%d", operatorID),
		Data: map[string]interface{}{
			"healthy":    healthy,
			"error_rate": errorRate,
		},
	}

	c.hub.Broadcast(operatorID, message)
}
