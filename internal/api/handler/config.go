package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	mw "github.com/edvin/rollout/internal/api/middleware"
	"github.com/edvin/rollout/internal/api/request"
	"github.com/edvin/rollout/internal/api/response"
	"github.com/edvin/rollout/internal/model"
)

type Config struct {
	svc ConfigService
}

func NewConfig(svc ConfigService) *Config {
	return &Config{svc: svc}
}

// Create godoc
//
//	@Summary		Create a deployment config version
//	@Description	Stores a new version of a deployment config. Versions count up per config name. The creator defaults to the calling operator.
//	@Tags			Configs
//	@Param			body	body		model.DeploymentConfig	true	"Deployment config"
//	@Success		201		{object}	model.DeploymentConfig
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		500		{object}	response.ErrorResponse
//	@Router			/configs [post]
func (h *Config) Create(w http.ResponseWriter, r *http.Request) {
	var cfg model.DeploymentConfig
	if err := request.Decode(r, &cfg); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if cfg.CreatedBy == "" {
		cfg.CreatedBy = r.Header.Get(mw.OperatorHeader)
	}

	if err := h.svc.Create(r.Context(), &cfg); err != nil {
		response.WriteServiceError(w, err)
		return
	}

	zerolog.Ctx(r.Context()).Info().
		Str("config_id", cfg.ID).
		Str("name", cfg.Name).
		Int("version", cfg.Version).
		Msg("deployment config created")
	response.WriteJSON(w, http.StatusCreated, cfg)
}

// List godoc
//
//	@Summary		List deployment configs
//	@Description	Returns a paginated list of deployment config versions without their full spec, ordered by ID.
//	@Tags			Configs
//	@Param			limit	query		int		false	"Page size"	default(50)
//	@Param			cursor	query		string	false	"Pagination cursor"
//	@Param			name	query		string	false	"Filter by config name"
//	@Success		200		{object}	response.PaginatedResponse{items=[]store.ConfigSummary}
//	@Failure		500		{object}	response.ErrorResponse
//	@Router			/configs [get]
func (h *Config) List(w http.ResponseWriter, r *http.Request) {
	pg := request.ParsePagination(r)

	configs, hasMore, err := h.svc.List(r.Context(), r.URL.Query().Get("name"), pg.Limit, pg.Cursor)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(configs) > 0 {
		nextCursor = configs[len(configs)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, configs, nextCursor, hasMore)
}

// Get godoc
//
//	@Summary		Get a deployment config
//	@Tags			Configs
//	@Param			id	path		string	true	"Config ID"
//	@Success		200	{object}	model.DeploymentConfig
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		404		{object}	response.ErrorResponse
//	@Failure		500		{object}	response.ErrorResponse
//	@Router			/configs/{id} [get]
func (h *Config) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg, err := h.svc.Get(r.Context(), id)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, cfg)
}
