package track

import "fmt"

// Segment is one curve piece of a track: start, control, and end points.
type Segment struct {
	P [3]PointID
	// Station and Switch are derived from the points' labels by UpdateStationSwitch.
	Station Label
	Switch  Label
}

func NewSegment(start, control, end PointID, station, sw Label) *Segment {
	return &Segment{
		P:       [3]PointID{start, control, end},
		Station: station,
		Switch:  sw,
	}
}

func (s *Segment) GetPoints() [3]PointID { return s.P }

// Index returns the position of id in the segment, or -1.
func (s *Segment) Index(id PointID) int {
	for i, p := range s.P {
		if p == id {
			return i
		}
	}
	return -1
}

func (s *Segment) String() string {
	return fmt.Sprintf("seg(%d %d %d s=%s w=%s)", s.P[0], s.P[1], s.P[2], s.Station, s.Switch)
}

// UpdateStationSwitch sets Station and Switch to the one name shared by all points that have one, or None when the points disagree or have none.
// Each kind is derived independently.
func (s *Segment) UpdateStationSwitch(a *Arena) {
	var stations, switches [3]Label
	for i, id := range s.P {
		p := a.Get(id)
		stations[i] = p.Station
		switches[i] = p.Switch
	}
	s.Station = derive(stations)
	s.Switch = derive(switches)
}

func derive(labels [3]Label) Label {
	found := None
	for _, l := range labels {
		if !l.Present() {
			continue
		}
		if !found.Present() {
			found = Some(l.value)
		} else if found.value != l.value {
			return None
		}
	}
	return found
}

// RemovePoint returns the segments replacing s once target is removed from it.
// If target is not in s, s itself is returned.
// Otherwise the two remaining points become the new start and end, with a new control point at their midpoint; the segment is reshaped, never dropped.
// The new control point is added to a and carries the labels of s, as does the new segment.
func (s *Segment) RemovePoint(a *Arena, target PointID) []*Segment {
	var start, end PointID
	switch s.Index(target) {
	case 0:
		start, end = s.P[1], s.P[2]
	case 1:
		start, end = s.P[0], s.P[2]
	case 2:
		start, end = s.P[0], s.P[1]
	default:
		return []*Segment{s}
	}
	x, y, z := a.midpoint(start, end)
	mid := a.Add(Point{
		X: x, Y: y, Z: z,
		Station: s.Station,
		Switch:  s.Switch,
		Track:   a.Get(start).Track,
	})
	return []*Segment{NewSegment(start, mid, end, s.Station, s.Switch)}
}
