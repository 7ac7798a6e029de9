package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/luxequeer/deployer/internal/api/types"
	"github.com/luxequeer/deployer/internal/repository"
	"github.com/luxequeer/deployer/internal/services"
)

const maxPageSize = 100

type DeploymentsHandler struct {
	svc services.DeploymentService
}

func NewDeploymentsHandler(svc services.DeploymentService) *DeploymentsHandler {
	return &DeploymentsHandler{svc: svc}
}

func (h *DeploymentsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	if limit <= 0 || limit > maxPageSize {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	items, err := h.svc.ListDeployments(r.Context(), repository.DeploymentFilter{
		Status: q.Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{
		Success: true,
		Data:    items,
		Meta:    &types.Meta{Limit: limit, Offset: offset, Count: len(items)},
	})
}

// Create records a pending deployment and hands it to the worker.
func (h *DeploymentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.CreateDeployment(r.Context(), services.CreateDeploymentInput{Trigger: "api", Enqueue: true})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/deployments/"+d.ID.String())
	writeJSON(w, http.StatusAccepted, types.APIResponse{Success: true, Data: d})
}

func (h *DeploymentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := deploymentID(w, r)
	if !ok {
		return
	}
	d, err := h.svc.GetDeployment(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: d})
}

// Cancel closes a pending or running record. A worker already executing the run
// finishes it, but its result is no longer recorded.
func (h *DeploymentsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := deploymentID(w, r)
	if !ok {
		return
	}
	d, err := h.svc.Cancel(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: d})
}

func (h *DeploymentsHandler) Logs(w http.ResponseWriter, r *http.Request) {
	id, ok := deploymentID(w, r)
	if !ok {
		return
	}
	logs, err := h.svc.GetDeploymentLogs(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: logs})
}

func deploymentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid deployment id")
		return uuid.Nil, false
	}
	return id, true
}
