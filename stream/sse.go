package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// WriteSSE drains the pipe onto w as a Server-Sent Events stream, one JSON
// frame per event, flushed per event so the client sees output
// incrementally. Returns once the pipe closes or the client disconnects;
// frames written before a disconnect remain valid on the client.
func WriteSSE(w http.ResponseWriter, r *http.Request, pipe *Pipe) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return errors.New("response writer does not support streaming")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		event, err := pipe.Receive(r.Context())
		if err != nil {
			if errors.Is(err, ErrClosed) {
				return nil
			}
			return err
		}

		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to encode stream event: %w", err)
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return err
		}
		flusher.Flush()
	}
}
