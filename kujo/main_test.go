package kujo

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"nyiyui.ca/hato/kidou/edit"
	"nyiyui.ca/hato/kidou/journal"
	"nyiyui.ca/hato/kidou/track"
	"nyiyui.ca/hato/kidou/trackset"
)

const (
	index = `<tracks><train_track filename="main.dat" trainConfigName="main"/><train_track filename="branch.dat"/></tracks>`
	datA  = "c 0 0 0 5 5 5 10 0 0 14 1 Central\nc 10 0 0 15 0 0 20 0 0 10 0 8North\n"
)

func newServer(t *testing.T) (*Server, string) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"index.xml":  index,
		"main.dat":   datA,
		"branch.dat": datA,
	} {
		err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644)
		if err != nil {
			t.Fatal(err)
		}
	}
	ts, err := trackset.Load(filepath.Join(dir, "index.xml"))
	if err != nil {
		t.Fatal(err)
	}
	j, err := journal.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	srv := NewServer(edit.New(ts, j))
	t.Cleanup(func() {
		srv.Close()
		j.Close()
	})
	return srv, dir
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	err := json.NewDecoder(rec.Body).Decode(v)
	if err != nil {
		t.Fatalf("decode %q: %s", rec.Body.String(), err)
	}
}

func TestTracks(t *testing.T) {
	srv, dir := newServer(t)
	rec := do(t, srv, http.MethodGet, "/api/tracks", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var sums []edit.TrackSummary
	decode(t, rec, &sums)
	branch := filepath.Join(dir, "branch.dat")
	if diff := cmp.Diff([]string{"main", branch}, []string{sums[0].Name, sums[1].Name}); diff != "" {
		t.Fatalf("names: %s", diff)
	}

	rec = do(t, srv, http.MethodGet, "/api/tracks/"+strings.ReplaceAll(branch, "/", "%2F"), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("path-named track: status %d: %s", rec.Code, rec.Body)
	}
	var v edit.TrackView
	decode(t, rec, &v)
	if v.Name != branch || len(v.Segments) != 2 {
		t.Fatalf("view: %+v", v)
	}

	rec = do(t, srv, http.MethodGet, "/api/tracks/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown track: status %d", rec.Code)
	}
}

func TestEditRemoveVisible(t *testing.T) {
	srv, _ := newServer(t)
	rec := do(t, srv, http.MethodPut, "/api/tracks/main/points/1", `{"x": 1, "y": 2, "z": 3, "station": "West", "switch": null}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("edit: status %d: %s", rec.Code, rec.Body)
	}
	var er editResponse
	decode(t, rec, &er)
	if er.Edit.Kind != track.KindEditPoint || er.Relabel.Kind != track.KindRelabel {
		t.Fatalf("kinds: %s %s", er.Edit.Kind, er.Relabel.Kind)
	}
	if diff := cmp.Diff([]int{0}, er.Relabel.Segments); diff != "" {
		t.Fatalf("relabelled: %s", diff)
	}

	rec = do(t, srv, http.MethodPut, "/api/tracks/main/points/1", `{"x": `)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad json: status %d", rec.Code)
	}
	rec = do(t, srv, http.MethodDelete, "/api/tracks/main/points/99", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown point: status %d", rec.Code)
	}

	rec = do(t, srv, http.MethodDelete, "/api/tracks/main/points/4", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("remove: status %d: %s", rec.Code, rec.Body)
	}
	var ch track.Change
	decode(t, rec, &ch)
	if diff := cmp.Diff([]track.PointID{4}, ch.Removed); diff != "" {
		t.Fatalf("removed: %s", diff)
	}

	rec = do(t, srv, http.MethodPut, "/api/tracks/main/visible", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing visible: status %d", rec.Code)
	}
	rec = do(t, srv, http.MethodPut, "/api/tracks/main/visible", `{"visible": false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("visible: status %d", rec.Code)
	}

	rec = do(t, srv, http.MethodGet, "/api/journal?track=main", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("journal: status %d", rec.Code)
	}
	var es []journal.Entry
	decode(t, rec, &es)
	var kinds []track.ChangeKind
	for _, e := range es {
		kinds = append(kinds, e.Change.Kind)
	}
	want := []track.ChangeKind{track.KindEditPoint, track.KindRelabel, track.KindRemovePoint, track.KindVisibility}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("journal: %s", diff)
	}
}

func TestSave(t *testing.T) {
	srv, dir := newServer(t)
	rec := do(t, srv, http.MethodDelete, "/api/tracks/main/points/0", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("remove: status %d", rec.Code)
	}
	rec = do(t, srv, http.MethodPost, "/api/save", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("save: status %d: %s", rec.Code, rec.Body)
	}
	data, err := os.ReadFile(filepath.Join(dir, "main.dat"))
	if err != nil {
		t.Fatal(err)
	}
	want := "c 5.0 5.0 5.0 7.5 2.5 2.5 10.0 0.0 0.0 0 0 Central\nc 10.0 0.0 0.0 15.0 0.0 0.0 20.0 0.0 0.0 0 0 8North\n"
	if diff := cmp.Diff(want, string(data)); diff != "" {
		t.Fatalf("main.dat: %s", diff)
	}

	err = os.Remove(filepath.Join(dir, "branch.dat"))
	if err != nil {
		t.Fatal(err)
	}
	err = os.Mkdir(filepath.Join(dir, "branch.dat"), 0o755)
	if err != nil {
		t.Fatal(err)
	}
	rec = do(t, srv, http.MethodPost, "/api/save", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("failing save: status %d", rec.Code)
	}
	var resp saveResponse
	decode(t, rec, &resp)
	if len(resp.Errors) != 1 {
		t.Fatalf("errors: %v", resp.Errors)
	}
}

func TestEvents(t *testing.T) {
	srv, _ := newServer(t)
	hs := httptest.NewServer(srv)
	defer hs.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hs.URL+"/events?stream=changes", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	rec := do(t, srv, http.MethodPut, "/api/tracks/main/visible", `{"visible": false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("visible: status %d", rec.Code)
	}
	var want track.Change
	decode(t, rec, &want)

	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		var got track.Change
		err := json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(line, "data:"))), &got)
		if err != nil {
			t.Fatal(err)
		}
		if got.ID != want.ID || got.Visible == nil || *got.Visible {
			t.Fatalf("got %s, want %s", got, want)
		}
		return
	}
	t.Fatalf("stream ended: %v", sc.Err())
}

func TestWithCORS(t *testing.T) {
	srv, _ := newServer(t)
	h := WithCORS(srv, []string{"http://editor.example"})
	req := httptest.NewRequest(http.MethodGet, "/api/tracks", nil)
	req.Header.Set("Origin", "http://editor.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://editor.example" {
		t.Fatalf("allow origin: %q", got)
	}
	if WithCORS(srv, nil) != http.Handler(srv) {
		t.Fatal("handler wrapped without origins")
	}
}
