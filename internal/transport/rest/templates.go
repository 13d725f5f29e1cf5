package rest

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/samu-svg/debt-wise-flow-sub001/internal/repository"
)

func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := operatorFrom(w, r)
	if !ok {
		return
	}

	list, err := h.deps.Templates.List(r.Context(), operatorID)
	if err != nil {
		ErrorInternal(w, "failed to list templates")
		return
	}
	Success(w, "", templatesJSON(list))
}

func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := operatorFrom(w, r)
	if !ok {
		return
	}

	t, err := ValidateTemplateRequest(r)
	if err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}
	t.OperatorID = operatorID

	if err := h.deps.Templates.Create(r.Context(), t); err != nil {
		ErrorInternal(w, "failed to create template")
		return
	}

	SuccessCreated(w, "template created", templateJSON(*t))
}

func (h *Handler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := operatorFrom(w, r)
	if !ok {
		return
	}

	t, err := ValidateTemplateRequest(r)
	if err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}
	t.ID = chi.URLParam(r, "id")
	t.OperatorID = operatorID

	if err := h.deps.Templates.Update(r.Context(), t); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			ErrorNotFound(w, "template not found")
			return
		}
		ErrorInternal(w, "failed to update template")
		return
	}

	Success(w, "template updated", templateJSON(*t))
}

func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := operatorFrom(w, r)
	if !ok {
		return
	}

	if err := h.deps.Templates.Delete(r.Context(), operatorID, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			ErrorNotFound(w, "template not found")
			return
		}
		ErrorInternal(w, "failed to delete template")
		return
	}

	Success(w, "template deleted", nil)
}
