package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/micro-nova/piconfig-go/internal/advisory"
	"github.com/micro-nova/piconfig-go/internal/models"
)

// sseKeepAlive is how often an idle stream gets a comment line so proxies
// do not close it.
const sseKeepAlive = 25 * time.Second

// viewStream writes advisory views as "view" events with increasing ids.
type viewStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	seq     uint64
}

func (s *viewStream) send(v advisory.View) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.seq++
	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: view\ndata: %s\n\n", s.seq, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *viewStream) ping() error {
	if _, err := fmt.Fprint(s.w, ": ping\n\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// subscribe streams the panel view: one event on connect, then one per
// published state change.
func (h *Handlers) subscribe(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, models.ErrInternal("response does not support streaming"))
		return
	}

	hdr := w.Header()
	hdr.Set("Content-Type", "text/event-stream")
	hdr.Set("Cache-Control", "no-cache")
	hdr.Set("Connection", "keep-alive")
	hdr.Set("X-Accel-Buffering", "no")

	subID, updates := h.events.Subscribe()
	defer h.events.Unsubscribe(subID)

	stream := &viewStream{w: w, flusher: flusher}
	if err := stream.send(h.ctrl.View()); err != nil {
		return
	}

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	for {
		var err error
		select {
		case <-r.Context().Done():
			return
		case state, open := <-updates:
			if !open {
				return
			}
			err = stream.send(advisory.NewView(state))
		case <-keepAlive.C:
			err = stream.ping()
		}
		if err != nil {
			return
		}
	}
}
