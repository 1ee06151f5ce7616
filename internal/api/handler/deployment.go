package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/edvin/rollout/internal/api/request"
	"github.com/edvin/rollout/internal/api/response"
	"github.com/edvin/rollout/internal/core"
	"github.com/edvin/rollout/internal/model"
)

type Deployment struct {
	svc DeploymentService
}

func NewDeployment(svc DeploymentService) *Deployment {
	return &Deployment{svc: svc}
}

// Create godoc
//
//	@Summary		Start a deployment
//	@Description	Starts a deployment of a config version. Returns 202 with the deployment in its initial status and starts a Temporal workflow that runs it; progress is followed with Get or the log stream.
//	@Tags			Deployments
//	@Param			body	body		request.StartDeployment	true	"Deployment details"
//	@Success		202		{object}	model.Deployment
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		404		{object}	response.ErrorResponse
//	@Failure		409		{object}	response.ErrorResponse
//	@Failure		500		{object}	response.ErrorResponse
//	@Router			/deployments [post]
func (h *Deployment) Create(w http.ResponseWriter, r *http.Request) {
	var req request.StartDeployment
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	d, err := h.svc.Start(r.Context(), core.StartParams{
		ConfigID:   req.ConfigID,
		Version:    req.Version,
		DeployedBy: req.DeployedBy,
	})
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	zerolog.Ctx(r.Context()).Info().
		Str("deployment_id", d.ID).
		Str("config", d.ConfigName).
		Str("version", d.Version).
		Str("status", d.Status).
		Msg("deployment started")
	response.WriteJSON(w, http.StatusAccepted, d)
}

// List godoc
//
//	@Summary		List deployments
//	@Description	Returns a paginated list of deployments, ordered by ID.
//	@Tags			Deployments
//	@Param			limit		query		int		false	"Page size"	default(50)
//	@Param			cursor		query		string	false	"Pagination cursor"
//	@Param			status		query		string	false	"Filter by status"
//	@Param			environment	query		string	false	"Filter by environment"
//	@Param			config		query		string	false	"Filter by config name"
//	@Success		200			{object}	response.PaginatedResponse{items=[]model.Deployment}
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		500		{object}	response.ErrorResponse
//	@Router			/deployments [get]
func (h *Deployment) List(w http.ResponseWriter, r *http.Request) {
	f, err := request.ParseDeploymentFilter(r)
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	pg := request.ParsePagination(r)

	deployments, hasMore, err := h.svc.List(r.Context(), f, pg.Limit, pg.Cursor)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(deployments) > 0 {
		nextCursor = deployments[len(deployments)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, deployments, nextCursor, hasMore)
}

// Get godoc
//
//	@Summary		Get a deployment
//	@Tags			Deployments
//	@Param			id	path		string	true	"Deployment ID"
//	@Success		200	{object}	model.Deployment
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		404		{object}	response.ErrorResponse
//	@Failure		500		{object}	response.ErrorResponse
//	@Router			/deployments/{id} [get]
func (h *Deployment) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	d, err := h.svc.Get(r.Context(), id)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, d)
}

// Approve godoc
//
//	@Summary		Decide on a deployment approval
//	@Description	Sends an approver's decision to a deployment waiting for approval. The deployment workflow records the decision; the response shows the deployment with the decision applied.
//	@Tags			Deployments
//	@Param			id		path		string					true	"Deployment ID"
//	@Param			body	body		request.ApprovalDecision	true	"Decision"
//	@Success		200		{object}	model.Deployment
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		404		{object}	response.ErrorResponse
//	@Failure		409		{object}	response.ErrorResponse
//	@Failure		500		{object}	response.ErrorResponse
//	@Router			/deployments/{id}/approvals [post]
func (h *Deployment) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.ApprovalDecision
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	d, err := h.svc.RecordDecision(r.Context(), id, core.DecisionParams{
		ApproverID: req.ApproverID,
		Approved:   *req.Approved,
		Comments:   req.Comments,
	})
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, d)
}

// RollbackDecision godoc
//
//	@Summary		Decide on a rollback
//	@Description	Answers a deployment that is waiting for a manual rollback decision.
//	@Tags			Deployments
//	@Param			id		path		string					true	"Deployment ID"
//	@Param			body	body		request.RollbackDecision	true	"Decision"
//	@Success		202		{object}	map[string]any
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		404		{object}	response.ErrorResponse
//	@Failure		409		{object}	response.ErrorResponse
//	@Failure		500		{object}	response.ErrorResponse
//	@Router			/deployments/{id}/rollback-decision [post]
func (h *Deployment) RollbackDecision(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.RollbackDecision
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.svc.DecideRollback(r.Context(), id, model.RollbackDecisionSignal{
		DecidedBy: req.DecidedBy,
		Approved:  *req.Approved,
		Reason:    req.Reason,
	})
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusAccepted, map[string]any{"id": id, "approved": *req.Approved})
}
