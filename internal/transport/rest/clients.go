package rest

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/samu-svg/debt-wise-flow-sub001/internal/domain"
	"github.com/samu-svg/debt-wise-flow-sub001/internal/repository"
)

func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := operatorFrom(w, r)
	if !ok {
		return
	}

	var filter repository.ClientsFilter
	if s := r.URL.Query().Get("status"); s != "" {
		status := domain.ClientStatus(s)
		if status != domain.ClientStatusPending && status != domain.ClientStatusPaid {
			ErrorBadRequest(w, "status must be pending or paid")
			return
		}
		filter.Status = &status
	}
	if q := r.URL.Query().Get("search"); q != "" {
		filter.Search = &q
	}

	list, err := h.deps.Clients.List(r.Context(), operatorID, filter)
	if err != nil {
		ErrorInternal(w, "failed to list clients")
		return
	}
	Success(w, "", clientsJSON(list))
}

func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := operatorFrom(w, r)
	if !ok {
		return
	}

	c, err := ValidateClientRequest(r)
	if err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}
	c.OperatorID = operatorID

	if err := h.deps.Clients.Create(r.Context(), c); err != nil {
		ErrorInternal(w, "failed to create client")
		return
	}

	SuccessCreated(w, "client created", clientJSON(*c))
}

func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := operatorFrom(w, r)
	if !ok {
		return
	}

	c, err := h.deps.Clients.GetByID(r.Context(), operatorID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			ErrorNotFound(w, "client not found")
			return
		}
		ErrorInternal(w, "failed to load client")
		return
	}

	Success(w, "", clientJSON(*c))
}

func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := operatorFrom(w, r)
	if !ok {
		return
	}

	c, err := ValidateClientRequest(r)
	if err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}
	c.ID = chi.URLParam(r, "id")
	c.OperatorID = operatorID

	if err := h.deps.Clients.Update(r.Context(), c); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			ErrorNotFound(w, "client not found")
			return
		}
		ErrorInternal(w, "failed to update client")
		return
	}

	Success(w, "client updated", clientJSON(*c))
}

func (h *Handler) MarkClientPaid(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := operatorFrom(w, r)
	if !ok {
		return
	}

	if err := h.deps.Clients.MarkPaid(r.Context(), operatorID, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			ErrorNotFound(w, "client not found")
			return
		}
		ErrorInternal(w, "failed to mark client as paid")
		return
	}

	Success(w, "client marked as paid", nil)
}

func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := operatorFrom(w, r)
	if !ok {
		return
	}

	if err := h.deps.Clients.Delete(r.Context(), operatorID, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			ErrorNotFound(w, "client not found")
			return
		}
		ErrorInternal(w, "failed to delete client")
		return
	}

	Success(w, "client deleted", nil)
}
