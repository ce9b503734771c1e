package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/postalhub/letter-dispatch/internal/database"
	"github.com/postalhub/letter-dispatch/internal/models"
	"github.com/postalhub/letter-dispatch/internal/pipeline"
)

// LetterService serves the operational read surface: letter status by id,
// the pending list and the stale list. Intake itself lives behind a
// different boundary.
type LetterService struct {
	repo  database.LetterRepository
	stale *pipeline.StaleTask
}

func NewLetterService(repo database.LetterRepository, stale *pipeline.StaleTask) *LetterService {
	return &LetterService{repo: repo, stale: stale}
}

type letterResponse struct {
	ID            string     `json:"id"`
	Service       string     `json:"service"`
	Type          string     `json:"type"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	SentToPrintAt *time.Time `json:"sent_to_print_at,omitempty"`
	PrintedAt     *time.Time `json:"printed_at,omitempty"`
}

func toResponse(letter *models.Letter) letterResponse {
	return letterResponse{
		ID:            letter.ID,
		Service:       letter.Service,
		Type:          letter.Type,
		Status:        string(letter.Status),
		CreatedAt:     letter.CreatedAt,
		SentToPrintAt: letter.SentToPrintAt,
		PrintedAt:     letter.PrintedAt,
	}
}

func (h *LetterService) GetLetter(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/letters/")
	if id == "" {
		http.Error(w, "Letter id is required in the URL path /letters/{id}", http.StatusBadRequest)
		return
	}

	letter, err := h.repo.FindLetterByID(id)
	if errors.Is(err, models.ErrLetterNotFound) {
		http.Error(w, "Letter not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to retrieve letter", http.StatusInternalServerError)
		return
	}

	writeJSON(w, toResponse(letter))
}

func (h *LetterService) GetPendingLetters(w http.ResponseWriter, r *http.Request) {
	letters, err := h.repo.FindPending()
	if err != nil {
		http.Error(w, "Failed to retrieve pending letters", http.StatusInternalServerError)
		return
	}

	writeJSON(w, toResponses(letters))
}

func (h *LetterService) GetStaleLetters(w http.ResponseWriter, r *http.Request) {
	letters, err := h.stale.StaleLetters()
	if err != nil {
		http.Error(w, "Failed to retrieve stale letters", http.StatusInternalServerError)
		return
	}

	writeJSON(w, toResponses(letters))
}

func toResponses(letters []*models.Letter) []letterResponse {
	responses := make([]letterResponse, 0, len(letters))
	for _, letter := range letters {
		responses = append(responses, toResponse(letter))
	}
	return responses
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
