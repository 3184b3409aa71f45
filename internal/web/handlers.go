package web

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hpungsan/suhba/internal/config"
	"github.com/hpungsan/suhba/internal/db"
	"github.com/hpungsan/suhba/internal/errors"
	"github.com/hpungsan/suhba/internal/ops"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Handlers contains HTTP route handlers for the JSON API.
type Handlers struct {
	store   *db.Store
	cfg     *config.Config
	version string
}

// HandleHealth handles GET /healthz.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		renderError(w, errors.NewStoreUnavailable(err))
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"status": "ok", "version": h.version})
}

// HandleMatches handles GET /users/{id}/matches.
func (h *Handlers) HandleMatches(w http.ResponseWriter, r *http.Request) {
	limit, err := parseIntParam(r, "limit")
	if err != nil {
		renderError(w, err)
		return
	}
	minScore, err := parseOptionalIntParam(r, "min_score")
	if err != nil {
		renderError(w, err)
		return
	}
	exclude, err := parseOptionalBoolParam(r, "exclude_existing")
	if err != nil {
		renderError(w, err)
		return
	}

	result, err := ops.FindCompanionMatches(r.Context(), h.store, h.cfg, ops.MatchesInput{
		UserID:          chi.URLParam(r, "id"),
		Limit:           limit,
		MinScore:        minScore,
		ExcludeExisting: exclude,
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleStudyPartners handles GET /users/{id}/study-partners?topic=.
func (h *Handlers) HandleStudyPartners(w http.ResponseWriter, r *http.Request) {
	limit, err := parseIntParam(r, "limit")
	if err != nil {
		renderError(w, err)
		return
	}

	result, err := ops.FindStudyPartners(r.Context(), h.store, h.cfg, ops.StudyPartnersInput{
		UserID: chi.URLParam(r, "id"),
		Topic:  r.URL.Query().Get("topic"),
		Limit:  limit,
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleMentors handles GET /users/{id}/mentors.
func (h *Handlers) HandleMentors(w http.ResponseWriter, r *http.Request) {
	limit, err := parseIntParam(r, "limit")
	if err != nil {
		renderError(w, err)
		return
	}

	result, err := ops.FindMentors(r.Context(), h.store, h.cfg, ops.MentorsInput{
		UserID:      chi.URLParam(r, "id"),
		SubjectArea: r.URL.Query().Get("subject_area"),
		Limit:       limit,
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleFeed handles GET /users/{id}/feed.
func (h *Handlers) HandleFeed(w http.ResponseWriter, r *http.Request) {
	limit, err := parseIntParam(r, "limit")
	if err != nil {
		renderError(w, err)
		return
	}
	window, err := parseIntParam(r, "decay_window_hours")
	if err != nil {
		renderError(w, err)
		return
	}
	secondDegree, err := parseOptionalBoolParam(r, "include_second_degree")
	if err != nil {
		renderError(w, err)
		return
	}

	result, err := ops.ForYouFeed(r.Context(), h.store, h.cfg, ops.ForYouInput{
		UserID:              chi.URLParam(r, "id"),
		Limit:               limit,
		IncludeSecondDegree: secondDegree,
		DecayWindowHours:    window,
		RenderHTML:          wantsHTML(r),
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleTrending handles GET /users/{id}/trending.
func (h *Handlers) HandleTrending(w http.ResponseWriter, r *http.Request) {
	limit, err := parseIntParam(r, "limit")
	if err != nil {
		renderError(w, err)
		return
	}

	result, err := ops.TrendingFeed(r.Context(), h.store, h.cfg, ops.TrendingInput{
		UserID:     chi.URLParam(r, "id"),
		Limit:      limit,
		RenderHTML: wantsHTML(r),
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

type requestBody struct {
	RequesterID string `json:"requester_id"`
	RecipientID string `json:"recipient_id"`
	Message     string `json:"message"`
}

// HandleRequest handles POST /connections.
func (h *Handlers) HandleRequest(w http.ResponseWriter, r *http.Request) {
	var body requestBody
	if err := decodeBody(w, r, &body); err != nil {
		renderError(w, err)
		return
	}

	result, err := ops.RequestConnection(r.Context(), h.store, ops.RequestConnectionInput{
		RequesterID: body.RequesterID,
		RecipientID: body.RecipientID,
		Message:     body.Message,
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusCreated, result)
}

type respondBody struct {
	ActorID string `json:"actor_id"`
}

// HandleRespond handles POST /connections/{id}/{accept|decline|block}.
func (h *Handlers) HandleRespond(w http.ResponseWriter, r *http.Request) {
	var body respondBody
	if err := decodeBody(w, r, &body); err != nil {
		renderError(w, err)
		return
	}

	result, err := ops.RespondConnection(r.Context(), h.store, ops.RespondInput{
		ConnectionID: chi.URLParam(r, "id"),
		ActorID:      body.ActorID,
		Action:       chi.URLParam(r, "action"),
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

type interactBody struct {
	Type string `json:"type"`
}

// HandleInteract handles POST /connections/{id}/interactions.
func (h *Handlers) HandleInteract(w http.ResponseWriter, r *http.Request) {
	var body interactBody
	if err := decodeBody(w, r, &body); err != nil {
		renderError(w, err)
		return
	}

	result, err := ops.RecordInteraction(r.Context(), h.store, ops.InteractInput{
		ConnectionID: chi.URLParam(r, "id"),
		Type:         body.Type,
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusCreated, result)
}

// HandleHistory handles GET /connections/{id}/interactions.
func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := parseIntParam(r, "limit")
	if err != nil {
		renderError(w, err)
		return
	}

	result, err := ops.ListInteractions(r.Context(), h.store, ops.InteractionsInput{
		ConnectionID: chi.URLParam(r, "id"),
		Limit:        limit,
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

type strengthBody struct {
	Delta *int `json:"delta"`
}

// HandleStrength handles POST /connections/{id}/strength.
func (h *Handlers) HandleStrength(w http.ResponseWriter, r *http.Request) {
	var body strengthBody
	if err := decodeBody(w, r, &body); err != nil {
		renderError(w, err)
		return
	}
	if body.Delta == nil {
		renderError(w, errors.NewInvalidRequest("delta is required"))
		return
	}

	result, err := ops.AdjustStrength(r.Context(), h.store, ops.AdjustStrengthInput{
		ConnectionID: chi.URLParam(r, "id"),
		Delta:        *body.Delta,
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// decodeBody reads a JSON object body. An empty body decodes as {}.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !stderrors.Is(err, io.EOF) {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid JSON body: %v", err))
	}
	return nil
}

// parseIntParam parses an integer query parameter; absent means zero.
func parseIntParam(r *http.Request, name string) (int, error) {
	v, err := parseOptionalIntParam(r, name)
	if err != nil || v == nil {
		return 0, err
	}
	return *v, nil
}

func parseOptionalIntParam(r *http.Request, name string) (*int, error) {
	s := strings.TrimSpace(r.URL.Query().Get(name))
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("%s must be an integer", name))
	}
	return &v, nil
}

func parseOptionalBoolParam(r *http.Request, name string) (*bool, error) {
	s := strings.TrimSpace(r.URL.Query().Get(name))
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("%s must be a boolean", name))
	}
	return &v, nil
}

// wantsHTML reports whether the caller asked for rendered post content.
func wantsHTML(r *http.Request) bool {
	return strings.EqualFold(r.URL.Query().Get("render"), "html")
}

// renderError writes a SuhbaError as JSON with its HTTP status.
// Internal details never leave the server.
func renderError(w http.ResponseWriter, err error) {
	var sErr *errors.SuhbaError
	if !stderrors.As(err, &sErr) {
		sErr = errors.NewInternal(err)
	}

	body := errorBody(string(sErr.Code), sErr.Message, sErr.Status)
	if sErr.Code != errors.ErrInternal && sErr.Details != nil {
		body["error"].(map[string]any)["details"] = sErr.Details
	}
	renderJSON(w, sErr.Status, body)
}

func errorBody(code, message string, status int) map[string]any {
	return map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
			"status":  status,
		},
	}
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
