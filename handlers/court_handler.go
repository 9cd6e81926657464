package handlers

import (
	"net/http"

	"github.com/padelpoint/tournament-service/services"
)

type CourtHandler struct {
	courtService services.CourtService
}

func NewCourtHandler(cs services.CourtService) *CourtHandler {
	return &CourtHandler{courtService: cs}
}

// CreateHandler handles POST /courts
func (h *CourtHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name string `json:"name"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	court, err := h.courtService.CreateCourt(r.Context(), input.Name)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"court": court}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler handles GET /courts
func (h *CourtHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	courts, err := h.courtService.ListCourts(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"courts": courts}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
