package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/micro-nova/piconfig-go/internal/controller"
	"github.com/micro-nova/piconfig-go/internal/models"
)

func (h *Handlers) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.View())
}

func (h *Handlers) getInfo(w http.ResponseWriter, r *http.Request) {
	if h.info == nil {
		writeJSON(w, http.StatusOK, models.Info{})
		return
	}
	writeJSON(w, http.StatusOK, h.info())
}

func (h *Handlers) navigate(w http.ResponseWriter, r *http.Request) {
	var req models.PageChange
	if appErr := decodeBody(r, &req); appErr != nil {
		writeError(w, appErr)
		return
	}
	page, err := models.ParsePage(req.Page)
	if err != nil {
		writeError(w, err)
		return
	}
	state, appErr := h.ctrl.Navigate(r.Context(), page)
	writeResult(w, state, appErr)
}

func (h *Handlers) dismissNotification(w http.ResponseWriter, r *http.Request) {
	seq, err := strconv.ParseUint(chi.URLParam(r, "seq"), 10, 64)
	if err != nil {
		writeError(w, models.ErrBadRequest("invalid seq parameter"))
		return
	}
	writeResult(w, h.ctrl.Dismiss(seq), nil)
}

// reboot requires {"confirm": true}; the shell has already asked the operator.
// The response is 202 because the reboot call runs detached.
func (h *Handlers) reboot(w http.ResponseWriter, r *http.Request) {
	var req models.RebootRequest
	if appErr := decodeBody(r, &req); appErr != nil {
		writeError(w, appErr)
		return
	}
	if !req.Confirm {
		writeError(w, models.ErrBadRequest("reboot requires confirm=true"))
		return
	}
	h.ctrl.RequestReboot(r.Context(), controller.Confirmed)
	writeJSON(w, http.StatusAccepted, h.ctrl.View())
}
