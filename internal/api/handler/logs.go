package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/edvin/rollout/internal/api/request"
	"github.com/edvin/rollout/internal/api/response"
	"github.com/edvin/rollout/internal/model"
)

const defaultStreamPollInterval = time.Second

// Logs serves a deployment's log, as pages or as a live WebSocket tail.
type Logs struct {
	svc          DeploymentService
	pollInterval time.Duration
}

func NewLogs(svc DeploymentService) *Logs {
	return &Logs{svc: svc, pollInterval: defaultStreamPollInterval}
}

// LogPage is the response of the log listing.
type LogPage struct {
	Entries []model.LogEntry `json:"entries"`
	// Next is the after value for the following page.
	Next    int64 `json:"next"`
	HasMore bool  `json:"has_more"`
}

// List godoc
//
//	@Summary		List deployment log entries
//	@Description	Returns log entries with a sequence number greater than after, oldest first. Pass next as after to read the following page.
//	@Tags			Logs
//	@Param			id		path		string	true	"Deployment ID"
//	@Param			after	query		int		false	"Last sequence number already read"	default(0)
//	@Param			limit	query		int		false	"Page size"	default(500)
//	@Success		200		{object}	handler.LogPage
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		404		{object}	response.ErrorResponse
//	@Failure		500		{object}	response.ErrorResponse
//	@Router			/deployments/{id}/logs [get]
func (h *Logs) List(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	page := request.ParseLogPage(r)

	entries, hasMore, err := h.svc.Logs(r.Context(), id, page.After, page.Limit)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []model.LogEntry{}
	}

	next := page.After
	if len(entries) > 0 {
		next = entries[len(entries)-1].Seq
	}
	response.WriteJSON(w, http.StatusOK, LogPage{Entries: entries, Next: next, HasMore: hasMore})
}

// Stream godoc
//
//	@Summary		Stream deployment log entries
//	@Description	Upgrades to a WebSocket and sends every log entry after the given sequence number as a JSON text message. Once the deployment is terminal and its log is drained the socket is closed normally.
//	@Tags			Logs
//	@Param			id		path	string	true	"Deployment ID"
//	@Param			after	query	int		false	"Last sequence number already read"	default(0)
//	@Success		101
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		404		{object}	response.ErrorResponse
//	@Router			/deployments/{id}/logs/stream [get]
func (h *Logs) Stream(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	log := zerolog.Ctx(r.Context()).With().Str("deployment_id", id).Logger()

	// Reject unknown deployments before upgrading.
	if _, err := h.svc.Get(r.Context(), id); err != nil {
		response.WriteServiceError(w, err)
		return
	}

	ws, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer ws.CloseNow()

	// Client messages are ignored; reading only detects the close.
	ctx := ws.CloseRead(r.Context())

	err = h.tail(ctx, ws, id, request.ParseLogPage(r))
	switch {
	case err == nil:
		ws.Close(websocket.StatusNormalClosure, "deployment finished")
	case errors.Is(err, context.Canceled):
	default:
		log.Warn().Err(err).Msg("log stream ended")
		ws.Close(websocket.StatusInternalError, "log stream failed")
	}
}

func (h *Logs) tail(ctx context.Context, ws *websocket.Conn, id string, page request.LogPage) error {
	after := page.After
	drained := false
	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	for {
		d, err := h.svc.Get(ctx, id)
		if err != nil {
			return err
		}

		for {
			entries, hasMore, err := h.svc.Logs(ctx, id, after, page.Limit)
			if err != nil {
				return err
			}
			for _, e := range entries {
				if err := wsjson.Write(ctx, ws, e); err != nil {
					return err
				}
				after = e.Seq
			}
			if !hasMore {
				break
			}
		}

		// The terminal status change is logged after it is stored, so one
		// more poll follows the first terminal read.
		if model.IsTerminal(d.Status) {
			if drained {
				return nil
			}
			drained = true
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
