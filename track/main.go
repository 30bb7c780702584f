package track

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrNonFinite   = errors.New("coordinate must be finite")
	ErrNoSuchPoint = errors.New("no such point")
)

// Label is an optional station or switch name.
// The zero value is None, which is distinct from Some("").
type Label struct {
	value string
	set   bool
}

var None = Label{}

func Some(s string) Label { return Label{value: s, set: true} }

// Trimmed returns None for names which are empty after trimming space, like the point edit form does.
func Trimmed(s string) Label {
	s = strings.TrimSpace(s)
	if s == "" {
		return None
	}
	return Some(s)
}

func (l Label) Get() (string, bool) { return l.value, l.set }

func (l Label) trim() Label {
	if !l.set {
		return None
	}
	return Trimmed(l.value)
}

// Present reports whether l holds a non-empty name.
// Empty names are treated as absent when deriving and serialising labels.
func (l Label) Present() bool { return l.set && l.value != "" }

func (l Label) String() string {
	if !l.set {
		return "<none>"
	}
	return l.value
}

func (l Label) MarshalJSON() ([]byte, error) {
	if !l.set {
		return []byte("null"), nil
	}
	return json.Marshal(l.value)
}

func (l *Label) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = None
		return nil
	}
	var s string
	err := json.Unmarshal(data, &s)
	if err != nil {
		return err
	}
	*l = Some(s)
	return nil
}

// PointID is a handle to a Point in an Arena.
type PointID int

type Point struct {
	X, Y, Z float64
	Station Label
	Switch  Label
	// Track is the name of the track the point is shown in.
	Track Label
}

// Arena owns the points of one track.
// Segments refer to points by PointID, so a change through a handle is seen by every segment holding it.
type Arena struct {
	points []*Point
}

func NewArena() *Arena { return &Arena{} }

func (a *Arena) Add(p Point) PointID {
	a.points = append(a.points, &p)
	return PointID(len(a.points) - 1)
}

func (a *Arena) Len() int { return len(a.points) }

func (a *Arena) Valid(id PointID) bool {
	return id >= 0 && int(id) < len(a.points)
}

// check panics if id doesn't exist in this Arena.
func (a *Arena) check(id PointID) {
	if !a.Valid(id) {
		panic(fmt.Sprintf("invalid PointID %d (arena has %d points)", id, len(a.points)))
	}
}

// Get returns the point for id. The pointer stays valid for the lifetime of the Arena.
func (a *Arena) Get(id PointID) *Point {
	a.check(id)
	return a.points[id]
}

// SetCoords moves a point. Non-finite values are rejected and the point is left as is.
func (a *Arena) SetCoords(id PointID, x, y, z float64) error {
	a.check(id)
	if !Finite(x, y, z) {
		return fmt.Errorf("point %d: (%v, %v, %v): %w", id, x, y, z, ErrNonFinite)
	}
	p := a.points[id]
	p.X, p.Y, p.Z = x, y, z
	return nil
}

func (a *Arena) SetLabels(id PointID, station, sw Label) {
	a.check(id)
	p := a.points[id]
	p.Station = station.trim()
	p.Switch = sw.trim()
}

// midpoint returns the arithmetic mean of two points' coordinates.
func (a *Arena) midpoint(i, j PointID) (x, y, z float64) {
	p, q := a.Get(i), a.Get(j)
	return (p.X + q.X) / 2, (p.Y + q.Y) / 2, (p.Z + q.Z) / 2
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// Finite reports whether all coordinates are finite.
func Finite(fs ...float64) bool {
	for _, f := range fs {
		if !finite(f) {
			return false
		}
	}
	return true
}
