// Package dat reads and writes track files: one curve segment per line, as
//
//	c x1 y1 z1 x2 y2 z2 x3 y3 z3 length flag [station] [8switch]
//
// Lines not starting with the curve marker are ignored.
// Length and flag are not kept; they are always written as 0 0.
package dat

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"nyiyui.ca/hato/kidou/track"
)

const (
	// Marker starts every curve segment line.
	Marker = "c"
	// SwitchPrefix marks a label token as a switch name.
	SwitchPrefix = "8"
	minFields    = 11
	labelsFrom   = 12
)

var (
	errNotCurve     = errors.New("not a curve line")
	errTooFewFields = errors.New("too few fields")
	errNonFinite    = errors.New("non-finite coordinate")
)

type record struct {
	coords  [9]float64
	station track.Label
	sw      track.Label
}

func parseRecord(line string) (rec record, err error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, Marker+" ") {
		return record{}, errNotCurve
	}
	fields := strings.Fields(line)
	if len(fields) < minFields {
		return record{}, fmt.Errorf("%d fields: %w", len(fields), errTooFewFields)
	}
	for i := range rec.coords {
		rec.coords[i], err = strconv.ParseFloat(fields[1+i], 64)
		if err != nil {
			return record{}, fmt.Errorf("coordinate %d: %w", i, err)
		}
		if !track.Finite(rec.coords[i]) {
			return record{}, fmt.Errorf("coordinate %d: %w", i, errNonFinite)
		}
	}
	// fields[10] and fields[11] are length and flag; labels only follow both
	if len(fields) <= labelsFrom {
		return rec, nil
	}
	for _, tok := range fields[labelsFrom:] {
		if strings.HasPrefix(tok, SwitchPrefix) {
			rec.sw = track.Some(tok[len(SwitchPrefix):])
		} else {
			rec.station = track.Some(tok)
		}
	}
	return rec, nil
}

// Parse reads segments from r, adding their points to a.
// Malformed lines are skipped. Each line gets its own three points; nothing is shared between lines.
func Parse(r io.Reader, a *track.Arena) ([]*track.Segment, error) {
	var segs []*track.Segment
	br := bufio.NewReader(r)
	lineNo := 0
	for {
		line, readErr := br.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return segs, fmt.Errorf("line %d: %w", lineNo+1, readErr)
		}
		if line == "" && readErr == io.EOF {
			break
		}
		lineNo++
		rec, err := parseRecord(line)
		switch {
		case err == nil:
			segs = append(segs, segmentOf(a, rec))
		case err == errNotCurve:
		case errors.Is(err, errNonFinite):
			// the line is lost on the next save
			zap.S().Warnw("dropping line with non-finite coordinate", "line", lineNo, "err", err)
		default:
			zap.S().Debugw("skipping line", "line", lineNo, "err", err)
		}
		if readErr == io.EOF {
			break
		}
	}
	return segs, nil
}

func segmentOf(a *track.Arena, rec record) *track.Segment {
	var ids [3]track.PointID
	for i := range ids {
		ids[i] = a.Add(track.Point{
			X:       rec.coords[i*3],
			Y:       rec.coords[i*3+1],
			Z:       rec.coords[i*3+2],
			Station: rec.station,
			Switch:  rec.sw,
		})
	}
	return track.NewSegment(ids[0], ids[1], ids[2], rec.station, rec.sw)
}

// ReadFile parses the track file at path. The returned track has no name yet.
func ReadFile(path string) (*track.Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t := track.New("", path)
	t.Segments, err = Parse(f, t.Points)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return t, nil
}

// FormatCoord formats f the way the game's tooling writes coordinates: shortest round-trip digits, always with a decimal point, switching to exponent form for very small or large magnitudes.
func FormatCoord(f float64) string {
	e := strconv.FormatFloat(f, 'e', -1, 64)
	exp, err := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:])
	if err != nil {
		panic(fmt.Sprintf("unexpected float format %q", e))
	}
	if f != 0 && (exp < -4 || exp >= 16) {
		return e
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func labelPart(s *track.Segment) string {
	station, sw := s.Station.Present(), s.Switch.Present()
	switch {
	case station && sw:
		return s.Station.String() + " " + SwitchPrefix + s.Switch.String()
	case station:
		return s.Station.String()
	case sw:
		return SwitchPrefix + s.Switch.String()
	default:
		return ""
	}
}

func formatLine(a *track.Arena, s *track.Segment) string {
	var b strings.Builder
	b.WriteString(Marker)
	for _, id := range s.P {
		p := a.Get(id)
		for _, c := range [3]float64{p.X, p.Y, p.Z} {
			b.WriteByte(' ')
			b.WriteString(FormatCoord(c))
		}
	}
	b.WriteString(" 0 0")
	if l := labelPart(s); l != "" {
		b.WriteByte(' ')
		b.WriteString(l)
	}
	b.WriteByte('\n')
	return b.String()
}

// Write re-derives each segment's labels and writes the segments to w.
func Write(w io.Writer, a *track.Arena, segs []*track.Segment) error {
	bw := bufio.NewWriter(w)
	for _, s := range segs {
		s.UpdateStationSwitch(a)
		_, err := bw.WriteString(formatLine(a, s))
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

func Marshal(a *track.Arena, segs []*track.Segment) []byte {
	buf := new(bytes.Buffer)
	// writes to a bytes.Buffer don't fail
	_ = Write(buf, a, segs)
	return buf.Bytes()
}

// WriteFile overwrites t.Path with t's segments.
func WriteFile(t *track.Track) (err error) {
	f, err := os.Create(t.Path)
	if err != nil {
		return err
	}
	defer func() {
		cerr := f.Close()
		if err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", t.Path, cerr)
		}
	}()
	err = Write(f, t.Points, t.Segments)
	if err != nil {
		return fmt.Errorf("write %s: %w", t.Path, err)
	}
	return nil
}
