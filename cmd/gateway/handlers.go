package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"sigefgate/internal/registry/batch"
	"sigefgate/internal/registry/documents"
	"sigefgate/internal/spatial/engine"
	"sigefgate/internal/spatial/models"
	"sigefgate/pkg/fault"
)

// handlers is the thin operational surface of the gateway binary. Request
// validation and serialization stay here, out of the core packages.
type handlers struct {
	engine       *engine.Engine
	orchestrator *batch.Orchestrator
	logger       *slog.Logger
}

func (h *handlers) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/spatial/query", h.spatialQuery)
	mux.HandleFunc("POST /v1/registry/batch", h.batchDownload)
}

type spatialQueryRequest struct {
	Box   models.BoundingBox `json:"box"`
	Layer models.Layer       `json:"layer"`
	Mode  models.QueryMode   `json:"mode"`
	Limit int                `json:"limit"`
}

type spatialQueryResponse struct {
	Total         int                    `json:"total"`
	ServedBy      models.Backend         `json:"served_by"`
	Regions       []string               `json:"regions,omitempty"`
	FailedRegions []string               `json:"failed_regions,omitempty"`
	Features      []models.ParcelFeature `json:"features"`
}

func (h *handlers) spatialQuery(w http.ResponseWriter, r *http.Request) {
	var req spatialQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}

	result, err := h.engine.Query(r.Context(), engine.Request{
		Box:   req.Box,
		Layer: req.Layer,
		Mode:  req.Mode,
		Limit: req.Limit,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, spatialQueryResponse{
		Total:         len(result.Features),
		ServedBy:      result.ServedBy,
		Regions:       result.Regions,
		FailedRegions: result.FailedRegions,
		Features:      result.Features,
	})
}

type batchRequest struct {
	ParcelIDs []string                 `json:"parcel_ids"`
	Kinds     []documents.ArtifactKind `json:"kinds"`
}

type batchItemResponse struct {
	ParcelID  string   `json:"parcel_id"`
	Succeeded bool     `json:"succeeded"`
	Artifacts []string `json:"artifacts,omitempty"`
	Error     string   `json:"error,omitempty"`
}

type batchResponse struct {
	Total     int                 `json:"total"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
	Items     []batchItemResponse `json:"items"`
}

func (h *handlers) batchDownload(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	if len(req.ParcelIDs) == 0 {
		http.Error(w, "parcel_ids is required", http.StatusBadRequest)
		return
	}

	result, err := h.orchestrator.Download(r.Context(), req.ParcelIDs, req.Kinds)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := batchResponse{
		Total:     result.Total,
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
	}
	for _, item := range result.Items {
		out := batchItemResponse{
			ParcelID:  item.ParcelID,
			Succeeded: item.Succeeded(),
		}
		for _, artifact := range item.Artifacts {
			out.Artifacts = append(out.Artifacts, string(artifact.Kind))
		}
		if item.Err != nil {
			out.Error = item.Err.Error()
		}
		resp.Items = append(resp.Items, out)
	}
	h.writeJSON(w, r, resp)
}

func (h *handlers) writeJSON(w http.ResponseWriter, r *http.Request, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.ErrorContext(r.Context(), "encoding response", "error", err)
	}
}

func (h *handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway
	switch fault.KindOf(err) {
	case fault.KindInvalidIdentifier:
		status = http.StatusBadRequest
	case fault.KindParcelNotFound:
		status = http.StatusNotFound
	case fault.KindSessionExpired, fault.KindLoginFailed:
		status = http.StatusUnauthorized
	case fault.KindRegistry, fault.KindSpatialBackend:
		status = http.StatusBadGateway
	default:
		if errors.Is(err, fault.ErrAllBackendsFailed) {
			status = http.StatusBadGateway
		} else {
			status = http.StatusBadRequest
		}
	}

	h.logger.WarnContext(r.Context(), "request failed", "error", err, "status", status)
	http.Error(w, err.Error(), status)
}
