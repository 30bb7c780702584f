// Package kujo serves tracks and their edits over HTTP, streaming Changes as server-sent events.
package kujo

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/r3labs/sse/v2"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"nyiyui.ca/hato/kidou/edit"
	"nyiyui.ca/hato/kidou/track"
)

const changesStream = "changes"

type Server struct {
	s   *edit.Session
	es  *sse.Server
	r   *mux.Router
	ch  chan track.Change
	end chan struct{}
}

func NewServer(s *edit.Session) *Server {
	srv := &Server{
		s:   s,
		es:  sse.New(),
		r:   mux.NewRouter().UseEncodedPath(),
		ch:  make(chan track.Change),
		end: make(chan struct{}),
	}
	srv.es.AutoReplay = false
	srv.es.CreateStream(changesStream)
	srv.setup()
	s.Subscribe("kujo", srv.ch)
	go srv.forward()
	return srv
}

func (srv *Server) forward() {
	defer close(srv.end)
	for ch := range srv.ch {
		data, err := json.Marshal(ch)
		if err != nil {
			zap.S().Errorw("marshal change failed", "change", ch.ID, "err", err)
			continue
		}
		srv.es.Publish(changesStream, &sse.Event{
			ID:    []byte(ch.ID.String()),
			Event: []byte(ch.Kind),
			Data:  data,
		})
	}
}

// Close stops forwarding Changes and disconnects event stream clients.
func (srv *Server) Close() {
	srv.s.Unsubscribe(srv.ch)
	close(srv.ch)
	<-srv.end
	srv.es.Close()
}

// Router returns the router serving the API. More routes (e.g. a status page) may be added to it.
func (srv *Server) Router() *mux.Router { return srv.r }

func (srv *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	srv.r.ServeHTTP(w, r)
}

// WithCORS allows the given origins to use h. No origins leaves h as is.
func WithCORS(h http.Handler, origins []string) http.Handler {
	if len(origins) == 0 {
		return h
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(h)
}
