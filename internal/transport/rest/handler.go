package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/samu-svg/debt-wise-flow-sub001/internal/config"
	"github.com/samu-svg/debt-wise-flow-sub001/internal/domain"
	"github.com/samu-svg/debt-wise-flow-sub001/internal/repository"
	"github.com/samu-svg/debt-wise-flow-sub001/internal/service"
	"github.com/samu-svg/debt-wise-flow-sub001/internal/transport/auth"
	"github.com/samu-svg/debt-wise-flow-sub001/internal/whatsapp"
)

type ClientsStore interface {
	Create(ctx context.Context, c *domain.Client) error
	GetByID(ctx context.Context, operatorID int64, id string) (*domain.Client, error)
	List(ctx context.Context, operatorID int64, f repository.ClientsFilter) ([]domain.Client, error)
	Update(ctx context.Context, c *domain.Client) error
	MarkPaid(ctx context.Context, operatorID int64, id string) error
	Delete(ctx context.Context, operatorID int64, id string) error
}

type TemplatesStore interface {
	Create(ctx context.Context, t *domain.MessageTemplate) error
	List(ctx context.Context, operatorID int64) ([]domain.MessageTemplate, error)
	Update(ctx context.Context, t *domain.MessageTemplate) error
	Delete(ctx context.Context, operatorID int64, id string) error
}

type ConnectionsStore interface {
	Get(ctx context.Context, operatorID int64) (*domain.Connection, error)
	Upsert(ctx context.Context, c *domain.Connection) error
	UpdateHealth(ctx context.Context, operatorID int64, health domain.HealthStatus, checkedAt time.Time) error
}

type EventLogsStore interface {
	Append(ctx context.Context, operatorID int64, typ domain.EventType, detail string) error
	List(ctx context.Context, operatorID int64, typ *domain.EventType, limit int) ([]domain.EventLog, error)
}

type AutomationRunner interface {
	Run(ctx context.Context, operatorID int64, now time.Time) (*service.RunResult, error)
}

type SingleNotifier interface {
	Send(ctx context.Context, operatorID int64, req service.NotifyRequest) (*service.NotifyOutcome, error)
}

type ReceiptMarker interface {
	MarkDelivered(ctx context.Context, providerMessageID string) error
}

type Reporter interface {
	StartSendAttemptsReport(ctx context.Context, selected []string, filter repository.SendAttemptsFilter, operatorID int64) (string, error)
	Summarize(ctx context.Context, operatorID int64, from, to time.Time) (*service.Summary, error)
}

type ReportReader interface {
	GetReports(ctx context.Context, operatorID int64) ([]interface{}, error)
	GetReport(ctx context.Context, reportID string, operatorID int64) (interface{}, error)
}

type AttemptsReader interface {
	List(ctx context.Context, operatorID int64, f repository.SendAttemptsFilter) ([]domain.SendAttempt, error)
}

// HealthNotifier pushes connection-health changes to the dashboard.
type HealthNotifier interface {
	NotifyHealthChange(ctx context.Context, operatorID int64, healthy bool, errorRate float64)
}

type Deps struct {
	Clients     ClientsStore
	Templates   TemplatesStore
	Connections ConnectionsStore
	EventLogs   EventLogsStore
	Attempts    AttemptsReader

	Automation AutomationRunner
	Notify     SingleNotifier
	Receipts   ReceiptMarker
	Reports    Reporter
	ReportList ReportReader

	Operators OperatorResolver

	Manager      *whatsapp.Manager
	HealthNotify HealthNotifier

	WhatsApp config.WhatsAppConfig
}

type Handler struct {
	deps Deps
}

func NewHandler(deps Deps) *Handler {
	return &Handler{deps: deps}
}

// InitRoutes mounts the API under token auth plus the public webhook
// endpoints the provider calls directly.
func (h *Handler) InitRoutes(tokenRepo *repository.PersonalAccessTokenRepository) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/webhook/whatsapp", func(r chi.Router) {
		r.Get("/", h.VerifyWebhook)
		r.Post("/", h.ReceiveWebhook)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.TokenMiddleware(tokenRepo))

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.ListClients)
			r.Post("/", h.CreateClient)
			r.Get("/{id}", h.GetClient)
			r.Put("/{id}", h.UpdateClient)
			r.Delete("/{id}", h.DeleteClient)
			r.Post("/{id}/pay", h.MarkClientPaid)
		})

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", h.ListTemplates)
			r.Post("/", h.CreateTemplate)
			r.Put("/{id}", h.UpdateTemplate)
			r.Delete("/{id}", h.DeleteTemplate)
		})

		r.Route("/connection", func(r chi.Router) {
			r.Get("/", h.GetConnection)
			r.Put("/", h.SaveConnection)
			r.Post("/test", h.TestConnection)
			r.Post("/connect", h.Connect)
			r.Post("/disconnect", h.Disconnect)
			r.Get("/health", h.ConnectionHealth)
			r.Get("/provider-templates", h.ProviderTemplates)
		})

		r.Post("/automation/run", h.RunAutomation)
		r.Post("/notify", h.NotifySingle)

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", h.ListReports)
			r.Post("/send-attempts", h.StartSendAttemptsReport)
			r.Get("/summary", h.SendSummary)
			r.Get("/attempts", h.ListAttempts)
			r.Get("/{id}", h.GetReport)
		})

		r.Get("/logs", h.ListEventLogs)
	})

	return r
}

func operatorFrom(w http.ResponseWriter, r *http.Request) (int64, bool) {
	operatorID, err := auth.GetOperatorID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return 0, false
	}
	return operatorID, true
}
