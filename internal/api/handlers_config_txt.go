package api

import (
	"net/http"

	"github.com/micro-nova/piconfig-go/internal/models"
)

func (h *Handlers) loadConfigText(w http.ResponseWriter, r *http.Request) {
	state, appErr := h.ctrl.LoadConfigText(r.Context())
	writeResult(w, state, appErr)
}

func (h *Handlers) editConfigText(w http.ResponseWriter, r *http.Request) {
	var edit models.ConfigTextEdit
	if appErr := decodeBody(r, &edit); appErr != nil {
		writeError(w, appErr)
		return
	}
	if edit.Text == nil {
		writeError(w, &models.AppError{Code: "BAD_REQUEST", Message: "text is required", Field: "text", Status: http.StatusBadRequest})
		return
	}
	state, appErr := h.ctrl.EditConfigText(*edit.Text)
	writeResult(w, state, appErr)
}

func (h *Handlers) saveConfigText(w http.ResponseWriter, r *http.Request) {
	state, appErr := h.ctrl.SaveConfigText(r.Context())
	writeResult(w, state, appErr)
}

func (h *Handlers) discardConfigText(w http.ResponseWriter, r *http.Request) {
	state, appErr := h.ctrl.DiscardConfigText()
	writeResult(w, state, appErr)
}
