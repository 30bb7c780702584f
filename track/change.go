package track

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ChangeKind string

const (
	KindEditPoint   ChangeKind = "edit-point"
	KindRemovePoint ChangeKind = "remove-point"
	KindRelabel     ChangeKind = "relabel"
	KindVisibility  ChangeKind = "visibility"
)

// Change describes one edit applied to a track.
// Edits only describe what they touched; re-deriving labels and redrawing are up to the caller.
type Change struct {
	ID    uuid.UUID  `json:"id"`
	At    time.Time  `json:"at"`
	Track string     `json:"track"`
	Kind  ChangeKind `json:"kind"`
	// Points changed or created by the edit.
	Points []PointID `json:"points,omitempty"`
	// Removed points are no longer referenced by any segment.
	Removed []PointID `json:"removed,omitempty"`
	// Segments are indices into Track.Segments after the edit.
	Segments []int `json:"segments,omitempty"`
	Visible  *bool `json:"visible,omitempty"`
}

func NewChange(kind ChangeKind, track string) Change {
	return Change{
		ID:    uuid.New(),
		At:    time.Now(),
		Track: track,
		Kind:  kind,
	}
}

func (c Change) String() string {
	return fmt.Sprintf("%s %s on %s (points %v, segments %v)", c.ID, c.Kind, c.Track, c.Points, c.Segments)
}

// PointEdit replaces all editable fields of a point.
type PointEdit struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
	Station Label   `json:"station"`
	Switch  Label   `json:"switch"`
}
