package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/samu-svg/debt-wise-flow-sub001/internal/domain"
	"github.com/samu-svg/debt-wise-flow-sub001/internal/repository"
	"github.com/samu-svg/debt-wise-flow-sub001/internal/whatsapp"
)

type ConnectionStore interface {
	Get(ctx context.Context, operatorID int64) (*domain.Connection, error)
}

// WhatsAppSenderProvider resolves the operator's stored credentials into a
// connected Cloud API client. Missing credentials surface as
// ErrNotConfigured so the automation job can abort early and log once.
type WhatsAppSenderProvider struct {
	connections ConnectionStore
	manager     *whatsapp.Manager
}

func NewWhatsAppSenderProvider(connections ConnectionStore, manager *whatsapp.Manager) *WhatsAppSenderProvider {
	return &WhatsAppSenderProvider{connections: connections, manager: manager}
}

func (p *WhatsAppSenderProvider) SenderFor(ctx context.Context, operatorID int64) (TextSender, error) {
	conn, err := p.connections.Get(ctx, operatorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotConfigured
		}
		return nil, fmt.Errorf("load connection: %w", err)
	}
	if !conn.HasCredentials() {
		return nil, ErrNotConfigured
	}

	client := p.manager.ClientFor(operatorID, conn)
	if client.State() != whatsapp.StateConnected {
		if err := client.Connect(ctx); err != nil {
			return nil, fmt.Errorf("establish whatsapp session: %w", err)
		}
	}
	return client, nil
}
