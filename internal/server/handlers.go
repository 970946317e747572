package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aruiz/crossedpaths/backend/internal/service"
)

// APIHandlers exposes HTTP handlers for the REST API. All routes require an
// authenticated caller; the user id comes from the request context.
type APIHandlers struct {
	logger  *slog.Logger
	service *service.CrossingService
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, svc *service.CrossingService) *APIHandlers {
	return &APIHandlers{
		logger:  logger,
		service: svc,
	}
}

func (h *APIHandlers) handleVisits(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	userID := userIDFromContext(r.Context())

	var payload visitRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.Latitude == nil || payload.Longitude == nil {
		writeError(w, http.StatusBadRequest, "latitude and longitude are required")
		return
	}

	input := service.VisitInput{
		VenueID:   payload.VenueID,
		VenueName: payload.VenueName,
		Latitude:  *payload.Latitude,
		Longitude: *payload.Longitude,
	}
	if payload.VisitedAt != "" {
		ts, err := time.Parse(time.RFC3339, payload.VisitedAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid visitedAt")
			return
		}
		input.VisitedAt = &ts
	}

	result, err := h.service.RecordVisit(r.Context(), userID, input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to record visit", "error", err, "userId", userID)
		writeError(w, http.StatusInternalServerError, "failed to record visit")
		return
	}

	if result.Disabled {
		respondJSON(w, http.StatusOK, visitResponse{TrackingDisabled: true})
		return
	}

	respondJSON(w, http.StatusCreated, visitResponse{
		Recorded:       true,
		VisitID:        result.VisitID,
		CrossingsFound: result.CrossingsFound,
	})
}

func (h *APIHandlers) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	userID := userIDFromContext(r.Context())
	query := r.URL.Query()

	sctx := service.SuggestionContext{
		VenueID:      query.Get("venueId"),
		DiningStyle:  query.Get("diningStyle"),
		DietaryTheme: query.Get("dietaryTheme"),
	}

	latStr, lngStr := query.Get("lat"), query.Get("lng")
	if (latStr == "") != (lngStr == "") {
		writeError(w, http.StatusBadRequest, "lat and lng must be provided together")
		return
	}
	if latStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid lat")
			return
		}
		lng, err := strconv.ParseFloat(lngStr, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid lng")
			return
		}
		sctx.Lat, sctx.Lng = &lat, &lng
	}

	limit := parseInt(query.Get("limit"), 0)

	result, err := h.service.GetSuggestions(r.Context(), userID, sctx, limit)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to build suggestions", "error", err, "userId", userID)
		writeError(w, http.StatusInternalServerError, "failed to build suggestions")
		return
	}

	resp := suggestionsResponse{
		TrackingDisabled: result.Disabled,
		Suggestions:      []suggestionResponse{},
		TotalFound:       result.TotalFound,
	}
	for _, s := range result.Suggestions {
		resp.Suggestions = append(resp.Suggestions, suggestionResponse{
			UserID:        s.UserID,
			DisplayName:   s.Profile.DisplayName,
			CrossCount:    s.CrossCount,
			VenueName:     s.VenueName,
			LastCrossedAt: formatTime(s.LastCrossedAt),
			Type:          s.Type,
			Compatibility: s.Compatibility,
			DiningStyle:   s.Profile.DiningStyle,
			DietaryTags:   s.Profile.DietaryTags,
		})
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *APIHandlers) handlePaths(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	userID := userIDFromContext(r.Context())

	paths, err := h.service.GetSharedPaths(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to fetch shared paths", "error", err, "userId", userID)
		writeError(w, http.StatusInternalServerError, "failed to fetch shared paths")
		return
	}

	resp := pathsResponse{Paths: []pathResponse{}}
	for _, p := range paths {
		resp.Paths = append(resp.Paths, pathResponse{
			User1ID:   p.User1ID,
			User2ID:   p.User2ID,
			VenueName: p.VenueName,
			Latitude:  p.Lat,
			Longitude: p.Lng,
			IsActive:  p.IsActive,
			CreatedAt: formatTime(p.CreatedAt),
		})
	}

	respondJSON(w, http.StatusOK, resp)
}

// --- Request & Response DTOs ---

type visitRequest struct {
	VenueID   string   `json:"venueId"`
	VenueName string   `json:"venueName"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	VisitedAt string   `json:"visitedAt"`
}

type visitResponse struct {
	Recorded         bool   `json:"recorded"`
	TrackingDisabled bool   `json:"trackingDisabled,omitempty"`
	VisitID          string `json:"visitId,omitempty"`
	CrossingsFound   int    `json:"crossingsFound"`
}

type suggestionsResponse struct {
	TrackingDisabled bool                 `json:"trackingDisabled,omitempty"`
	Suggestions      []suggestionResponse `json:"suggestions"`
	TotalFound       int                  `json:"totalFound"`
}

type suggestionResponse struct {
	UserID        string   `json:"userId"`
	DisplayName   string   `json:"displayName"`
	CrossCount    int64    `json:"crossCount"`
	VenueName     string   `json:"venueName"`
	LastCrossedAt string   `json:"lastCrossedAt"`
	Type          string   `json:"type"`
	Compatibility int      `json:"compatibility,omitempty"`
	DiningStyle   string   `json:"diningStyle,omitempty"`
	DietaryTags   []string `json:"dietaryTags,omitempty"`
}

type pathsResponse struct {
	Paths []pathResponse `json:"paths"`
}

type pathResponse struct {
	User1ID   string  `json:"user1Id"`
	User2ID   string  `json:"user2Id"`
	VenueName string  `json:"venueName"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	IsActive  bool    `json:"isActive"`
	CreatedAt string  `json:"createdAt"`
}

// --- Helpers ---

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return nil
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
