package api

import (
	"net/http"

	"github.com/andrew2loo/RethinkBI/internal/service"
)

type handlers struct {
	svc *service.Services
}

func (h *handlers) getSchema(w http.ResponseWriter, r *http.Request) {
	tables, err := h.svc.Schema.GetSchema(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tables)
}

func (h *handlers) runQuery(w http.ResponseWriter, r *http.Request) {
	var req RunQueryRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.svc.Query.RunQuery(r.Context(), req.Spec, req.Options)
	if err != nil {
		writeError(w, err)
		return
	}
	if res.Columnar != nil {
		writeArrow(w, res.Columnar)
		return
	}
	writeJSON(w, http.StatusOK, res.Paged)
}

func (h *handlers) startQuery(w http.ResponseWriter, r *http.Request) {
	var req RunQueryRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	handle, err := h.svc.Query.StartQuery(r.Context(), req.Spec, req.Options)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, handle)
}

func (h *handlers) getQueryResult(w http.ResponseWriter, r *http.Request) {
	var req HandleRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.svc.Query.GetQueryResult(r.Context(), req.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if res.Columnar != nil {
		writeArrow(w, res.Columnar)
		return
	}
	writeJSON(w, http.StatusOK, res.Paged)
}

func (h *handlers) cancelQuery(w http.ResponseWriter, r *http.Request) {
	var req HandleRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.svc.Query.CancelQuery(r.Context(), req.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

func (h *handlers) importDataset(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.svc.Dataset.ImportDataset(r.Context(), req.Dataset, req.Table)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) exportDataset(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.svc.Dataset.ExportDataset(r.Context(), req.Table, req.Format, req.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) listConnections(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Connection.ListConnections(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handlers) createConnection(w http.ResponseWriter, r *http.Request) {
	var req CreateConnectionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	info, err := h.svc.Connection.CreateConnection(r.Context(), req.Config)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *handlers) deleteConnection(w http.ResponseWriter, r *http.Request) {
	var req HandleRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.svc.Connection.DeleteConnection(r.Context(), req.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

func (h *handlers) getStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.Status.GetStatus(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *handlers) getCapabilities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Capabilities.GetCapabilities())
}
