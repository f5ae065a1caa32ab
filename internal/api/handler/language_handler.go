package handler

import (
	"net/http"

	"leetcode_backend/internal/common"
	"leetcode_backend/internal/domain/language"

	"github.com/go-chi/chi/v5"
)

type LanguageHandler struct {
	registry *language.Registry
}

func NewLanguageHandler(reg *language.Registry) *LanguageHandler {
	return &LanguageHandler{registry: reg}
}

func (h *LanguageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listLanguages)
}

func (h *LanguageHandler) listLanguages(w http.ResponseWriter, r *http.Request) {
	common.RespondWithJSON(w, http.StatusOK, h.registry.List())
}
