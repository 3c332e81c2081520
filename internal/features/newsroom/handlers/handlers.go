package handlers

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"newsroom/internal/core"
	"newsroom/internal/features/newsroom/models"
	"newsroom/internal/features/newsroom/services"
)

// sessionCookie marks a browser session so repeated page loads count one
// visit, the way the original session-scoped counter behaved.
const sessionCookie = "newsroom_session"

// Handlers contains all newsroom feature HTTP handlers
type Handlers struct {
	logger  *core.Logger
	service *services.NewsroomService
}

// NewHandlers creates a new handlers instance
func NewHandlers(logger *core.Logger, service *services.NewsroomService) *Handlers {
	return &Handlers{
		logger:  logger,
		service: service,
	}
}

// GetDashboard returns the feeds, keywords, visitor count and briefing dates.
func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Document(r.Context())
	if err != nil {
		core.HandleError(w, err)
		return
	}

	dates := make([]string, 0, len(doc.Reports))
	for date := range doc.Reports {
		dates = append(dates, date)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	writeJSON(w, http.StatusOK, models.Dashboard{
		Feeds:       doc.Feeds,
		Keywords:    doc.Keywords,
		Visitors:    doc.Visitors,
		ReportDates: dates,
	})
}

// GetDocument returns the full document.
func (h *Handlers) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Document(r.Context())
	if err != nil {
		core.HandleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.DocumentResponse{Document: doc, Success: true})
}

// AddFeed subscribes a feed URL.
func (h *Handlers) AddFeed(w http.ResponseWriter, r *http.Request) {
	var req models.FeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.HandleError(w, core.NewValidationError("invalid request body", err))
		return
	}

	doc, err := h.service.AddFeed(r.Context(), req.URL)
	if err != nil {
		core.HandleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.DocumentResponse{Document: doc, Success: true})
}

// RemoveFeed unsubscribes the feed URL given in the url query parameter.
func (h *Handlers) RemoveFeed(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		core.HandleError(w, core.NewValidationError("url query parameter is required", nil))
		return
	}

	doc, err := h.service.RemoveFeed(r.Context(), url)
	if err != nil {
		core.HandleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.DocumentResponse{Document: doc, Success: true})
}

// AddKeyword tracks a keyword.
func (h *Handlers) AddKeyword(w http.ResponseWriter, r *http.Request) {
	var req models.KeywordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.HandleError(w, core.NewValidationError("invalid request body", err))
		return
	}

	doc, err := h.service.AddKeyword(r.Context(), req.Keyword)
	if err != nil {
		core.HandleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.DocumentResponse{Document: doc, Success: true})
}

// RemoveKeyword untracks the keyword given in the keyword query parameter.
func (h *Handlers) RemoveKeyword(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	if keyword == "" {
		core.HandleError(w, core.NewValidationError("keyword query parameter is required", nil))
		return
	}

	doc, err := h.service.RemoveKeyword(r.Context(), keyword)
	if err != nil {
		core.HandleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.DocumentResponse{Document: doc, Success: true})
}

// RecordVisit counts a visit once per browser session.
func (h *Handlers) RecordVisit(w http.ResponseWriter, r *http.Request) {
	if _, err := r.Cookie(sessionCookie); err == nil {
		// Already counted this session; report the current total.
		doc, err := h.service.Document(r.Context())
		if err != nil {
			core.HandleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, models.VisitResponse{Visitors: doc.Visitors, Counted: false, Success: true})
		return
	}

	visitors, err := h.service.RecordVisit(r.Context())
	if err != nil {
		core.HandleError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    uuid.NewString(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, models.VisitResponse{Visitors: visitors, Counted: true, Success: true})
}

// CollectNews runs a collection over the subscribed feeds.
func (h *Handlers) CollectNews(w http.ResponseWriter, r *http.Request) {
	date, articles, err := h.service.CollectToday(r.Context())
	if err != nil {
		core.HandleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.CollectResponse{Date: date, Articles: articles, Success: true})
}

// GenerateBriefing collects today's news and commits a fresh briefing.
func (h *Handlers) GenerateBriefing(w http.ResponseWriter, r *http.Request) {
	date, report, err := h.service.GenerateBriefing(r.Context())
	if err != nil {
		core.HandleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.BriefingResponse{Date: date, Report: report, Success: true})
}

// GetBriefing returns the stored briefing for the date path parameter.
func (h *Handlers) GetBriefing(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	report, err := h.service.BriefingFor(r.Context(), date)
	if err != nil {
		core.HandleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.BriefingResponse{Date: date, Report: report, Success: true})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
