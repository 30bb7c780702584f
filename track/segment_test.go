package track

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type xyz [3]float64

func coords(a *Arena, id PointID) xyz {
	p := a.Get(id)
	return xyz{p.X, p.Y, p.Z}
}

func testSegment() (*Arena, *Segment) {
	a := NewArena()
	p1 := a.Add(Point{X: 0, Y: 0, Z: 0, Station: Some("Foo")})
	p2 := a.Add(Point{X: 5, Y: 5, Z: 5, Station: Some("Foo")})
	p3 := a.Add(Point{X: 10, Y: 0, Z: 0, Station: Some("Foo")})
	s := NewSegment(p1, p2, p3, Some("Foo"), Some("North"))
	return a, s
}

func TestUpdateStationSwitch(t *testing.T) {
	type setup struct {
		stations [3]Label
		switches [3]Label
		station  Label
		sw       Label
	}
	setups := []setup{
		{[3]Label{Some("Foo"), Some("Foo"), Some("Foo")}, [3]Label{}, Some("Foo"), None},
		{[3]Label{Some("Foo"), Some("Bar"), Some("Foo")}, [3]Label{}, None, None},
		{[3]Label{Some("Foo"), None, Some("")}, [3]Label{None, Some("N"), None}, Some("Foo"), Some("N")},
		{[3]Label{}, [3]Label{Some("N"), Some("S"), None}, None, None},
		{[3]Label{Some(""), Some(""), None}, [3]Label{}, None, None},
	}
	for i, s := range setups {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			a := NewArena()
			var ids [3]PointID
			for j := range ids {
				ids[j] = a.Add(Point{Station: s.stations[j], Switch: s.switches[j]})
			}
			seg := NewSegment(ids[0], ids[1], ids[2], Some("stale"), Some("stale"))
			seg.UpdateStationSwitch(a)
			if seg.Station != s.station {
				t.Fatalf("station: got %s, want %s", seg.Station, s.station)
			}
			if seg.Switch != s.sw {
				t.Fatalf("switch: got %s, want %s", seg.Switch, s.sw)
			}
			before := *seg
			seg.UpdateStationSwitch(a)
			if !cmp.Equal(before, *seg, cmp.AllowUnexported(Label{})) {
				t.Fatalf("not idempotent: %s", cmp.Diff(before, *seg, cmp.AllowUnexported(Label{})))
			}
		})
	}
}

func TestRemovePoint(t *testing.T) {
	type setup struct {
		name    string
		remove  int
		start   xyz
		control xyz
		end     xyz
	}
	setups := []setup{
		{"control", 1, xyz{0, 0, 0}, xyz{5, 0, 0}, xyz{10, 0, 0}},
		{"start", 0, xyz{5, 5, 5}, xyz{7.5, 2.5, 2.5}, xyz{10, 0, 0}},
		{"end", 2, xyz{0, 0, 0}, xyz{2.5, 2.5, 2.5}, xyz{5, 5, 5}},
	}
	for _, s := range setups {
		t.Run(s.name, func(t *testing.T) {
			a, seg := testSegment()
			before := a.Len()
			res := seg.RemovePoint(a, seg.P[s.remove])
			if len(res) != 1 {
				t.Fatalf("got %d segments, want 1", len(res))
			}
			got := res[0]
			if got == seg {
				t.Fatal("original segment returned")
			}
			if a.Len() != before+1 {
				t.Fatalf("arena has %d points, want %d", a.Len(), before+1)
			}
			if diff := cmp.Diff([3]xyz{s.start, s.control, s.end}, [3]xyz{coords(a, got.P[0]), coords(a, got.P[1]), coords(a, got.P[2])}); diff != "" {
				t.Fatalf("coords: %s", diff)
			}
			for i, k := range []int{0, 2} {
				if got.P[k] == got.P[1] {
					t.Fatalf("endpoint %d reuses control point", i)
				}
			}
			if got.Station != Some("Foo") || got.Switch != Some("North") {
				t.Fatalf("labels not inherited: %s", got)
			}
			mid := a.Get(got.P[1])
			if mid.Station != Some("Foo") || mid.Switch != Some("North") {
				t.Fatalf("control point labels not inherited: %#v", mid)
			}
		})
	}
}

func TestRemovePointKeepsEndpointHandles(t *testing.T) {
	a, seg := testSegment()
	res := seg.RemovePoint(a, seg.P[1])
	if res[0].P[0] != seg.P[0] || res[0].P[2] != seg.P[2] {
		t.Fatalf("endpoints replaced: %s → %s", seg, res[0])
	}
}

func TestRemovePointNotMember(t *testing.T) {
	a, seg := testSegment()
	other := a.Add(Point{X: 0, Y: 0, Z: 0})
	before := a.Len()
	res := seg.RemovePoint(a, other)
	if len(res) != 1 || res[0] != seg {
		t.Fatalf("got %v, want the original segment", res)
	}
	if a.Len() != before {
		t.Fatal("arena changed")
	}
}
