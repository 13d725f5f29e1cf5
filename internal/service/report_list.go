package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/samu-svg/debt-wise-flow-sub001/internal/clients"
)

// ReportListService reads report statuses back from redis for the
// dashboard listing.
type ReportListService struct {
	redis *clients.RedisClient
}

func NewReportListService(redis *clients.RedisClient) *ReportListService {
	return &ReportListService{redis: redis}
}

func (s *ReportListService) GetReports(ctx context.Context, operatorID int64) ([]interface{}, error) {
	if s.redis == nil {
		return nil, errors.New("redis client not configured")
	}

	keys, err := s.redis.SMembers(ctx, reportSetKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get report keys: %w", err)
	}

	var statuses []ReportStatus
	for _, key := range keys {
		data, err := s.redis.Get(ctx, key)
		if err != nil {
			continue
		}

		var status ReportStatus
		if err := json.Unmarshal([]byte(data), &status); err != nil {
			continue
		}

		if status.Operator == operatorID {
			statuses = append(statuses, status)
		}
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Created.After(statuses[j].Created)
	})

	var reports []interface{}
	for _, status := range statuses {
		reports = append(reports, reportMap(status))
	}

	return reports, nil
}

func (s *ReportListService) GetReport(ctx context.Context, reportID string, operatorID int64) (interface{}, error) {
	if s.redis == nil {
		return nil, errors.New("redis client not configured")
	}

	data, err := s.redis.Get(ctx, reportID)
	if err != nil {
		return nil, errors.New("report not found")
	}

	var status ReportStatus
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return nil, fmt.Errorf("failed to parse report status: %w", err)
	}

	if status.Operator != operatorID {
		return nil, errors.New("report not found")
	}

	return reportMap(status), nil
}

func reportMap(status ReportStatus) map[string]interface{} {
	return map[string]interface{}{
		"key":         status.Key,
		"type":        status.Type,
		"operator_id": status.Operator,
		"progress":    status.Progress,
		"file_url":    status.FileURL,
		"filters":     status.Filters,
		"created_at":  humanizeAgo(status.Created),
	}
}

func humanizeAgo(t time.Time) string {
	now := time.Now()
	if t.After(now) {
		return "agora"
	}

	diff := now.Sub(t)
	minutes := int(diff.Minutes())
	if minutes < 1 {
		return "agora"
	}
	if minutes < 60 {
		return fmt.Sprintf("há %d min", minutes)
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("há %d h", hours)
	}
	days := hours / 24
	if days < 30 {
		return fmt.Sprintf("há %d dias", days)
	}
	return t.Format("02/01/2006 15:04")
}
