package api

import "net/http"

func (h *Handlers) mount(w http.ResponseWriter, r *http.Request) {
	state, appErr := h.ctrl.Mount(r.Context())
	writeResult(w, state, appErr)
}

func (h *Handlers) refreshMount(w http.ResponseWriter, r *http.Request) {
	state, appErr := h.ctrl.RefreshMountState(r.Context())
	writeResult(w, state, appErr)
}
