package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/suhba/internal/config"
	"github.com/hpungsan/suhba/internal/db"
	"github.com/hpungsan/suhba/internal/errors"
	"github.com/hpungsan/suhba/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	store *db.Store
	cfg   *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store *db.Store, cfg *config.Config) *Handlers {
	return &Handlers{store: store, cfg: cfg}
}

// Request types for each tool

// MatchesRequest represents the arguments for companion_matches.
type MatchesRequest struct {
	UserID          string `json:"user_id"`
	Limit           int    `json:"limit,omitempty"`
	MinScore        *int   `json:"min_score,omitempty"`
	ExcludeExisting *bool  `json:"exclude_existing,omitempty"`
}

// StudyPartnersRequest represents the arguments for companion_study_partners.
type StudyPartnersRequest struct {
	UserID string `json:"user_id"`
	Topic  string `json:"topic"`
	Limit  int    `json:"limit,omitempty"`
}

// MentorsRequest represents the arguments for companion_mentors.
type MentorsRequest struct {
	UserID      string `json:"user_id"`
	SubjectArea string `json:"subject_area,omitempty"`
	Limit       int    `json:"limit,omitempty"`
}

// ForYouRequest represents the arguments for feed_for_you.
type ForYouRequest struct {
	UserID              string `json:"user_id"`
	Limit               int    `json:"limit,omitempty"`
	IncludeSecondDegree *bool  `json:"include_second_degree,omitempty"`
	DecayWindowHours    int    `json:"decay_window_hours,omitempty"`
	RenderHTML          bool   `json:"render_html,omitempty"`
}

// TrendingRequest represents the arguments for feed_trending.
type TrendingRequest struct {
	UserID     string `json:"user_id"`
	Limit      int    `json:"limit,omitempty"`
	RenderHTML bool   `json:"render_html,omitempty"`
}

// RequestRequest represents the arguments for connection_request.
type RequestRequest struct {
	RequesterID string `json:"requester_id"`
	RecipientID string `json:"recipient_id"`
	Message     string `json:"message,omitempty"`
}

// RespondRequest represents the arguments for connection_respond.
type RespondRequest struct {
	ConnectionID string `json:"connection_id"`
	ActorID      string `json:"actor_id"`
	Action       string `json:"action"`
}

// InteractRequest represents the arguments for connection_interact.
type InteractRequest struct {
	ConnectionID string `json:"connection_id"`
	Type         string `json:"type"`
}

// HistoryRequest represents the arguments for connection_history.
type HistoryRequest struct {
	ConnectionID string `json:"connection_id"`
	Limit        int    `json:"limit,omitempty"`
}

// StrengthRequest represents the arguments for connection_strength.
type StrengthRequest struct {
	ConnectionID string `json:"connection_id"`
	Delta        *int   `json:"delta"`
}

// ImportRequest represents the arguments for fixture_import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// Handler implementations

// HandleMatches handles the companion_matches tool call.
func (h *Handlers) HandleMatches(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[MatchesRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.FindCompanionMatches(ctx, h.store, h.cfg, ops.MatchesInput{
		UserID:          input.UserID,
		Limit:           input.Limit,
		MinScore:        input.MinScore,
		ExcludeExisting: input.ExcludeExisting,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleStudyPartners handles the companion_study_partners tool call.
func (h *Handlers) HandleStudyPartners(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[StudyPartnersRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.FindStudyPartners(ctx, h.store, h.cfg, ops.StudyPartnersInput{
		UserID: input.UserID,
		Topic:  input.Topic,
		Limit:  input.Limit,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleMentors handles the companion_mentors tool call.
func (h *Handlers) HandleMentors(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[MentorsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.FindMentors(ctx, h.store, h.cfg, ops.MentorsInput{
		UserID:      input.UserID,
		SubjectArea: input.SubjectArea,
		Limit:       input.Limit,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleForYou handles the feed_for_you tool call.
func (h *Handlers) HandleForYou(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ForYouRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ForYouFeed(ctx, h.store, h.cfg, ops.ForYouInput{
		UserID:              input.UserID,
		Limit:               input.Limit,
		IncludeSecondDegree: input.IncludeSecondDegree,
		DecayWindowHours:    input.DecayWindowHours,
		RenderHTML:          input.RenderHTML,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleTrending handles the feed_trending tool call.
func (h *Handlers) HandleTrending(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TrendingRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.TrendingFeed(ctx, h.store, h.cfg, ops.TrendingInput{
		UserID:     input.UserID,
		Limit:      input.Limit,
		RenderHTML: input.RenderHTML,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleRequest handles the connection_request tool call.
func (h *Handlers) HandleRequest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RequestRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.RequestConnection(ctx, h.store, ops.RequestConnectionInput{
		RequesterID: input.RequesterID,
		RecipientID: input.RecipientID,
		Message:     input.Message,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleRespond handles the connection_respond tool call.
func (h *Handlers) HandleRespond(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RespondRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.RespondConnection(ctx, h.store, ops.RespondInput{
		ConnectionID: input.ConnectionID,
		ActorID:      input.ActorID,
		Action:       input.Action,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleInteract handles the connection_interact tool call.
func (h *Handlers) HandleInteract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[InteractRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.RecordInteraction(ctx, h.store, ops.InteractInput{
		ConnectionID: input.ConnectionID,
		Type:         input.Type,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleHistory handles the connection_history tool call.
func (h *Handlers) HandleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HistoryRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ListInteractions(ctx, h.store, ops.InteractionsInput{
		ConnectionID: input.ConnectionID,
		Limit:        input.Limit,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleStrength handles the connection_strength tool call.
func (h *Handlers) HandleStrength(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[StrengthRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Delta == nil {
		return errorResult(errors.NewInvalidRequest("delta is required")), nil
	}

	result, err := ops.AdjustStrength(ctx, h.store, ops.AdjustStrengthInput{
		ConnectionID: input.ConnectionID,
		Delta:        *input.Delta,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleImport handles the fixture_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Import(ctx, h.store, h.cfg, ops.ImportInput{
		Path: input.Path,
		Mode: ops.ImportMode(strings.ToLower(strings.TrimSpace(input.Mode))),
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are never exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var sErr *errors.SuhbaError
	if stderrors.As(err, &sErr) {
		// Keep wrapper context such as "profiles[2]: " in front of the message
		message := sErr.Message
		if prefix := strings.TrimSuffix(err.Error(), sErr.Error()); prefix != err.Error() {
			message = prefix + message
		}
		errorObj := map[string]any{
			"code":    sErr.Code,
			"message": message,
			"status":  sErr.Status,
		}
		if sErr.Code != errors.ErrInternal && sErr.Details != nil {
			errorObj["details"] = sErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
