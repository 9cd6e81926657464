package handlers

import (
	"net/http"

	"github.com/padelpoint/tournament-service/services"
)

type DrawHandler struct {
	drawService services.DrawService
}

func NewDrawHandler(ds services.DrawService) *DrawHandler {
	return &DrawHandler{drawService: ds}
}

// CreateHandler handles POST /tournaments/{tournamentID}/draw
func (h *DrawHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	draw, err := h.drawService.CreateDraw(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"draw": draw}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// PreviewHandler handles GET /tournaments/{tournamentID}/draw/preview: the
// bracket the current roster would produce, computed without persisting.
func (h *DrawHandler) PreviewHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	draw, err := h.drawService.PreviewDraw(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"draw": draw}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetHandler handles GET /tournaments/{tournamentID}/draw
func (h *DrawHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	draw, err := h.drawService.GetDraw(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"draw": draw}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
