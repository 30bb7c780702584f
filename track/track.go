package track

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Track is one rail line backed by one file.
type Track struct {
	Name   string
	Path   string
	Points *Arena
	// Segments are in file order.
	Segments []*Segment
	// Visible is only used for presentation and is not saved.
	Visible bool
}

func New(name, path string) *Track {
	return &Track{
		Name:    name,
		Path:    path,
		Points:  NewArena(),
		Visible: true,
	}
}

// Claim sets the track's name and marks all its points as shown in it.
func (t *Track) Claim(name string) {
	t.Name = name
	for i := 0; i < t.Points.Len(); i++ {
		t.Points.Get(PointID(i)).Track = Some(name)
	}
}

// PointList returns the points of every segment in order, three per segment.
func (t *Track) PointList() []PointID {
	ids := make([]PointID, 0, len(t.Segments)*3)
	for _, s := range t.Segments {
		ids = append(ids, s.P[:]...)
	}
	return ids
}

// SegmentsOf returns the indices of segments referencing id.
func (t *Track) SegmentsOf(id PointID) []int {
	var is []int
	for i, s := range t.Segments {
		if s.Index(id) != -1 {
			is = append(is, i)
		}
	}
	return is
}

// Splice replaces the segment at i with repl.
func (t *Track) Splice(i int, repl []*Segment) {
	if i < 0 || i >= len(t.Segments) {
		panic(fmt.Sprintf("invalid segment index %d (track has %d)", i, len(t.Segments)))
	}
	t.Segments = slices.Replace(t.Segments, i, i+1, repl...)
}

// RemovePoint removes id from every segment referencing it.
// Labels are inherited, not re-derived.
func (t *Track) RemovePoint(id PointID) (Change, error) {
	if !t.Points.Valid(id) {
		return Change{}, fmt.Errorf("remove point %d: %w", id, ErrNoSuchPoint)
	}
	ch := NewChange(KindRemovePoint, t.Name)
	for i := 0; i < len(t.Segments); i++ {
		s := t.Segments[i]
		if s.Index(id) == -1 {
			continue
		}
		repl := s.RemovePoint(t.Points, id)
		t.Splice(i, repl)
		for j, r := range repl {
			ch.Segments = append(ch.Segments, i+j)
			ch.Points = append(ch.Points, r.P[1])
		}
		i += len(repl) - 1
	}
	if len(ch.Segments) == 0 {
		return Change{}, fmt.Errorf("remove point %d: not on track: %w", id, ErrNoSuchPoint)
	}
	ch.Removed = []PointID{id}
	return ch, nil
}

// EditPoint sets a point's coordinates and labels. Nothing is changed if the coordinates are invalid.
// Segment labels are left stale until Relabel is called.
func (t *Track) EditPoint(id PointID, e PointEdit) (Change, error) {
	if !t.Points.Valid(id) {
		return Change{}, fmt.Errorf("edit point %d: %w", id, ErrNoSuchPoint)
	}
	segs := t.SegmentsOf(id)
	if len(segs) == 0 {
		return Change{}, fmt.Errorf("edit point %d: not on track: %w", id, ErrNoSuchPoint)
	}
	err := t.Points.SetCoords(id, e.X, e.Y, e.Z)
	if err != nil {
		return Change{}, fmt.Errorf("edit point: %w", err)
	}
	t.Points.SetLabels(id, e.Station, e.Switch)
	ch := NewChange(KindEditPoint, t.Name)
	ch.Points = []PointID{id}
	ch.Segments = segs
	return ch, nil
}

// Relabel re-derives the labels of segments touched by ch.
func (t *Track) Relabel(ch Change) Change {
	var segs []int
	add := func(i int) {
		if i >= 0 && i < len(t.Segments) && !slices.Contains(segs, i) {
			segs = append(segs, i)
		}
	}
	for _, i := range ch.Segments {
		add(i)
	}
	for _, id := range ch.Points {
		for _, i := range t.SegmentsOf(id) {
			add(i)
		}
	}
	slices.Sort(segs)
	for _, i := range segs {
		t.Segments[i].UpdateStationSwitch(t.Points)
	}
	res := NewChange(KindRelabel, t.Name)
	res.Segments = segs
	return res
}

func (t *Track) RelabelAll() {
	for _, s := range t.Segments {
		s.UpdateStationSwitch(t.Points)
	}
}

// Stations returns the distinct station names of segments, in order of first appearance.
func (t *Track) Stations() []string {
	return t.distinct(func(s *Segment) Label { return s.Station })
}

// Switches returns the distinct switch names of segments, in order of first appearance.
func (t *Track) Switches() []string {
	return t.distinct(func(s *Segment) Label { return s.Switch })
}

func (t *Track) distinct(get func(*Segment) Label) []string {
	var names []string
	for _, s := range t.Segments {
		l := get(s)
		if l.Present() && !slices.Contains(names, l.value) {
			names = append(names, l.value)
		}
	}
	return names
}

// Bounds returns the axis-aligned extent of the points on the track.
func (t *Track) Bounds() (lo, hi [3]float64, ok bool) {
	for _, id := range t.PointList() {
		p := t.Points.Get(id)
		c := [3]float64{p.X, p.Y, p.Z}
		if !ok {
			lo, hi, ok = c, c, true
			continue
		}
		for k := range c {
			if c[k] < lo[k] {
				lo[k] = c[k]
			}
			if c[k] > hi[k] {
				hi[k] = c[k]
			}
		}
	}
	return
}
