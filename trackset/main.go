// Package trackset loads the tracks listed in an index and saves them back.
package trackset

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"nyiyui.ca/hato/kidou/track"
	"nyiyui.ca/hato/kidou/track/dat"
)

var ErrNoSuchTrack = errors.New("no such track")

type TrackSet struct {
	// IndexPath is where the index was loaded from.
	IndexPath string
	tracks    map[string]*track.Track
	// order is registration order; an overwritten name keeps its first position.
	order []string
}

func New(indexPath string) *TrackSet {
	return &TrackSet{
		IndexPath: indexPath,
		tracks:    map[string]*track.Track{},
	}
}

// Load reads the index at indexPath and every track it lists.
// Tracks that fail to load, or have no segments, are left out.
func Load(indexPath string) (*TrackSet, error) {
	idx, err := ReadIndex(indexPath)
	if err != nil {
		return nil, err
	}
	ts := New(indexPath)
	ts.load(idx)
	return ts, nil
}

func (ts *TrackSet) load(idx Index) {
	for i, e := range idx.Entries {
		if e.Filename == nil {
			zap.S().Debugw("index entry without filename", "index", ts.IndexPath, "entry", i)
			continue
		}
		path := resolve(ts.IndexPath, *e.Filename)
		zap.S().Infow("loading track", "path", path)
		t, err := dat.ReadFile(path)
		if err != nil {
			zap.S().Warnw("track not loaded", "path", path, "err", err)
			continue
		}
		if len(t.Segments) == 0 {
			zap.S().Warnw("track has no segments", "path", path)
			continue
		}
		name := path
		if e.TrainConfigName != nil {
			name = *e.TrainConfigName
		}
		ts.Register(name, t)
	}
}

// Reload reads the index again, replacing all tracks. On error the current tracks are kept.
func (ts *TrackSet) Reload() error {
	idx, err := ReadIndex(ts.IndexPath)
	if err != nil {
		return err
	}
	ts.tracks = map[string]*track.Track{}
	ts.order = nil
	ts.load(idx)
	return nil
}

// Register adds t under name, replacing any track already registered with that name.
func (ts *TrackSet) Register(name string, t *track.Track) {
	if prev, ok := ts.tracks[name]; ok {
		zap.S().Infow("track name reused", "name", name, "previous", prev.Path, "path", t.Path)
	} else {
		ts.order = append(ts.order, name)
	}
	t.Claim(name)
	ts.tracks[name] = t
}

func (ts *TrackSet) Len() int { return len(ts.order) }

func (ts *TrackSet) Names() []string {
	return append([]string(nil), ts.order...)
}

func (ts *TrackSet) Get(name string) (*track.Track, bool) {
	t, ok := ts.tracks[name]
	return t, ok
}

// Tracks returns all tracks in registration order.
func (ts *TrackSet) Tracks() []*track.Track {
	res := make([]*track.Track, 0, len(ts.order))
	for _, name := range ts.order {
		res = append(res, ts.tracks[name])
	}
	return res
}

// Visible returns the tracks shown in views.
func (ts *TrackSet) Visible() []*track.Track {
	var res []*track.Track
	for _, t := range ts.Tracks() {
		if t.Visible {
			res = append(res, t)
		}
	}
	return res
}

func (ts *TrackSet) SetVisible(name string, visible bool) error {
	t, ok := ts.tracks[name]
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrNoSuchTrack)
	}
	t.Visible = visible
	return nil
}

// SaveError is a failure to save one track.
type SaveError struct {
	Track string
	Path  string
	Err   error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save %s to %s: %s", e.Track, e.Path, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// Save writes every track back to its file.
// A failing track does not stop the others; all failures are returned combined (see multierr.Errors).
func (ts *TrackSet) Save() error {
	var errs error
	for _, name := range ts.order {
		t := ts.tracks[name]
		err := dat.WriteFile(t)
		if err != nil {
			zap.S().Errorw("save failed", "track", name, "path", t.Path, "err", err)
			errs = multierr.Append(errs, &SaveError{Track: name, Path: t.Path, Err: err})
			continue
		}
		zap.S().Infow("saved", "track", name, "path", t.Path, "segments", len(t.Segments))
	}
	return errs
}
