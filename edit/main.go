// Package edit serialises edits to a TrackSet, recording and publishing every Change.
package edit

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"nyiyui.ca/hato/kidou/journal"
	"nyiyui.ca/hato/kidou/notify"
	"nyiyui.ca/hato/kidou/track"
	"nyiyui.ca/hato/kidou/trackset"
)

var ErrNoSuchTrack = trackset.ErrNoSuchTrack

type Session struct {
	lock sync.Mutex
	// publishLock is taken before lock is released, so Changes are journalled and sent in the order they were applied.
	publishLock sync.Mutex
	ts          *trackset.TrackSet
	j           *journal.Journal
	sender      *notify.MultiplexerSender[track.Change]
	changes     *notify.Multiplexer[track.Change]
}

// New returns a session editing ts. j may be nil.
func New(ts *trackset.TrackSet, j *journal.Journal) *Session {
	sender, changes := notify.NewMultiplexerSender[track.Change]("edit changes")
	return &Session{
		ts:      ts,
		j:       j,
		sender:  sender,
		changes: changes,
	}
}

// Subscribe sends every applied Change to c.
func (s *Session) Subscribe(comment string, c chan track.Change) {
	s.changes.Subscribe(comment, c)
}

func (s *Session) Unsubscribe(c chan track.Change) {
	s.changes.Unsubscribe(c)
}

func (s *Session) Journal() *journal.Journal { return s.j }

func (s *Session) IndexPath() string { return s.ts.IndexPath }

// get must be called with lock held.
func (s *Session) get(name string) (*track.Track, error) {
	t, ok := s.ts.Get(name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNoSuchTrack)
	}
	return t, nil
}

// commit must be called with lock held; it releases lock.
// Subscribers may call back into the session while ch is being sent.
func (s *Session) commit(ch track.Change) {
	s.publishLock.Lock()
	defer s.publishLock.Unlock()
	s.lock.Unlock()
	if s.j != nil {
		seq, err := s.j.Record(ch)
		if err != nil {
			zap.S().Errorw("journal failed", "change", ch.ID, "err", err)
		} else {
			zap.S().Debugw("journalled", "change", ch.ID, "seq", seq)
		}
	}
	zap.S().Infow("applied", "change", ch.String())
	s.sender.Send(ch)
}

func (s *Session) EditPoint(name string, id track.PointID, e track.PointEdit) (track.Change, error) {
	s.lock.Lock()
	t, err := s.get(name)
	if err != nil {
		s.lock.Unlock()
		return track.Change{}, err
	}
	ch, err := t.EditPoint(id, e)
	if err != nil {
		s.lock.Unlock()
		return track.Change{}, err
	}
	s.commit(ch)
	return ch, nil
}

func (s *Session) RemovePoint(name string, id track.PointID) (track.Change, error) {
	s.lock.Lock()
	t, err := s.get(name)
	if err != nil {
		s.lock.Unlock()
		return track.Change{}, err
	}
	ch, err := t.RemovePoint(id)
	if err != nil {
		s.lock.Unlock()
		return track.Change{}, err
	}
	s.commit(ch)
	return ch, nil
}

// Relabel re-derives the labels of the segments touched by ch.
func (s *Session) Relabel(ch track.Change) (track.Change, error) {
	s.lock.Lock()
	t, err := s.get(ch.Track)
	if err != nil {
		s.lock.Unlock()
		return track.Change{}, err
	}
	res := t.Relabel(ch)
	s.commit(res)
	return res, nil
}

func (s *Session) SetVisible(name string, visible bool) (track.Change, error) {
	s.lock.Lock()
	err := s.ts.SetVisible(name, visible)
	if err != nil {
		s.lock.Unlock()
		return track.Change{}, err
	}
	ch := track.NewChange(track.KindVisibility, name)
	ch.Visible = &visible
	s.commit(ch)
	return ch, nil
}

// Save writes every track to its file. See trackset.TrackSet.Save.
func (s *Session) Save() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.ts.Save()
}

// Reload reads the index again, discarding unsaved edits.
func (s *Session) Reload() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.ts.Reload()
}

func (s *Session) Snapshot(name string) (TrackView, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	t, err := s.get(name)
	if err != nil {
		return TrackView{}, err
	}
	return viewOf(t), nil
}

// Tracks summarises every track in index order.
func (s *Session) Tracks() []TrackSummary {
	s.lock.Lock()
	defer s.lock.Unlock()
	ts := s.ts.Tracks()
	res := make([]TrackSummary, 0, len(ts))
	for _, t := range ts {
		res = append(res, summaryOf(t))
	}
	return res
}
