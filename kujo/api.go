package kujo

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"nyiyui.ca/hato/kidou/edit"
	"nyiyui.ca/hato/kidou/journal"
	"nyiyui.ca/hato/kidou/track"
)

func (srv *Server) setup() {
	api := srv.r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/tracks", srv.handleTracks).Methods(http.MethodGet)
	api.HandleFunc("/tracks/{name}", srv.handleTrack).Methods(http.MethodGet)
	api.HandleFunc("/tracks/{name}/points/{id:[0-9]+}", srv.handleEditPoint).Methods(http.MethodPut)
	api.HandleFunc("/tracks/{name}/points/{id:[0-9]+}", srv.handleRemovePoint).Methods(http.MethodDelete)
	api.HandleFunc("/tracks/{name}/visible", srv.handleVisible).Methods(http.MethodPut)
	api.HandleFunc("/save", srv.handleSave).Methods(http.MethodPost)
	api.HandleFunc("/reload", srv.handleReload).Methods(http.MethodPost)
	api.HandleFunc("/journal", srv.handleJournal).Methods(http.MethodGet)
	srv.r.Handle("/events", srv.es).Methods(http.MethodGet)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, edit.ErrNoSuchTrack), errors.Is(err, track.ErrNoSuchPoint):
		status = http.StatusNotFound
	case errors.Is(err, track.ErrNonFinite):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func trackName(r *http.Request) (string, error) {
	return url.PathUnescape(mux.Vars(r)["name"])
}

func pointRef(r *http.Request) (name string, id track.PointID, err error) {
	name, err = trackName(r)
	if err != nil {
		return "", 0, err
	}
	n, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		return "", 0, fmt.Errorf("point id: %w", err)
	}
	return name, track.PointID(n), nil
}

func (srv *Server) handleTracks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, srv.s.Tracks())
}

func (srv *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	name, err := trackName(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid track name"})
		return
	}
	v, err := srv.s.Snapshot(name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type editResponse struct {
	Edit    track.Change `json:"edit"`
	Relabel track.Change `json:"relabel"`
}

func (srv *Server) handleEditPoint(w http.ResponseWriter, r *http.Request) {
	name, id, err := pointRef(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	var e track.PointEdit
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	ch, err := srv.s.EditPoint(name, id, e)
	if err != nil {
		writeError(w, err)
		return
	}
	rch, err := srv.s.Relabel(ch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, editResponse{Edit: ch, Relabel: rch})
}

func (srv *Server) handleRemovePoint(w http.ResponseWriter, r *http.Request) {
	name, id, err := pointRef(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	ch, err := srv.s.RemovePoint(name, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

type visibleRequest struct {
	Visible *bool `json:"visible"`
}

func (srv *Server) handleVisible(w http.ResponseWriter, r *http.Request) {
	name, err := trackName(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid track name"})
		return
	}
	var req visibleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Visible == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "visible is required"})
		return
	}
	ch, err := srv.s.SetVisible(name, *req.Visible)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

type saveResponse struct {
	Error  string   `json:"error"`
	Errors []string `json:"errors"`
}

func (srv *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	err := srv.s.Save()
	if err == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	resp := saveResponse{Error: "save failed"}
	for _, err := range multierr.Errors(err) {
		resp.Errors = append(resp.Errors, err.Error())
	}
	writeJSON(w, http.StatusInternalServerError, resp)
}

func (srv *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	err := srv.s.Reload()
	if err != nil {
		zap.S().Errorw("reload failed", "index", srv.s.IndexPath(), "err", err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (srv *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	j := srv.s.Journal()
	if j == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no journal"})
		return
	}
	es, err := j.List(r.URL.Query().Get("track"))
	if err != nil {
		writeError(w, err)
		return
	}
	if es == nil {
		es = []journal.Entry{}
	}
	writeJSON(w, http.StatusOK, es)
}
