package edit

import (
	"nyiyui.ca/hato/kidou/track"
)

type PointView struct {
	ID      track.PointID `json:"id"`
	X       float64       `json:"x"`
	Y       float64       `json:"y"`
	Z       float64       `json:"z"`
	Station track.Label   `json:"station"`
	Switch  track.Label   `json:"switch"`
	Track   track.Label   `json:"track"`
}

type SegmentView struct {
	Points  [3]track.PointID `json:"points"`
	Station track.Label      `json:"station"`
	Switch  track.Label      `json:"switch"`
}

// TrackView is a copy of a track, safe to use without holding the session.
type TrackView struct {
	Name     string        `json:"name"`
	Path     string        `json:"path"`
	Visible  bool          `json:"visible"`
	Points   []PointView   `json:"points"`
	Segments []SegmentView `json:"segments"`
}

type TrackSummary struct {
	Name     string   `json:"name"`
	Path     string   `json:"path"`
	Visible  bool     `json:"visible"`
	Segments int      `json:"segments"`
	Points   int      `json:"points"`
	Stations []string `json:"stations"`
	Switches []string `json:"switches"`
}

func viewOf(t *track.Track) TrackView {
	v := TrackView{
		Name:     t.Name,
		Path:     t.Path,
		Visible:  t.Visible,
		Points:   []PointView{},
		Segments: make([]SegmentView, 0, len(t.Segments)),
	}
	seen := map[track.PointID]bool{}
	for _, s := range t.Segments {
		v.Segments = append(v.Segments, SegmentView{
			Points:  s.GetPoints(),
			Station: s.Station,
			Switch:  s.Switch,
		})
		for _, id := range s.P {
			if seen[id] {
				continue
			}
			seen[id] = true
			p := t.Points.Get(id)
			v.Points = append(v.Points, PointView{
				ID:      id,
				X:       p.X,
				Y:       p.Y,
				Z:       p.Z,
				Station: p.Station,
				Switch:  p.Switch,
				Track:   p.Track,
			})
		}
	}
	return v
}

func summaryOf(t *track.Track) TrackSummary {
	seen := map[track.PointID]bool{}
	for _, id := range t.PointList() {
		seen[id] = true
	}
	return TrackSummary{
		Name:     t.Name,
		Path:     t.Path,
		Visible:  t.Visible,
		Segments: len(t.Segments),
		Points:   len(seen),
		Stations: t.Stations(),
		Switches: t.Switches(),
	}
}
