package api

import (
	"net/http"

	"github.com/micro-nova/piconfig-go/internal/models"
)

func (h *Handlers) refreshInterface(w http.ResponseWriter, r *http.Request) {
	id, appErr := interfaceParam(r)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	state, appErr := h.ctrl.RefreshInterface(r.Context(), id)
	writeResult(w, state, appErr)
}

func (h *Handlers) setInterface(w http.ResponseWriter, r *http.Request) {
	id, appErr := interfaceParam(r)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	var upd models.InterfaceUpdate
	if appErr := decodeBody(r, &upd); appErr != nil {
		writeError(w, appErr)
		return
	}
	if upd.Configured == nil {
		writeError(w, &models.AppError{Code: "BAD_REQUEST", Message: "configured is required", Field: "configured", Status: http.StatusBadRequest})
		return
	}
	state, appErr := h.ctrl.SetConfigured(r.Context(), id, *upd.Configured)
	writeResult(w, state, appErr)
}
