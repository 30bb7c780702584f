package trackset

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html/charset"
)

// Index lists the track files of a project, as train_track elements under the root element.
type Index struct {
	XMLName xml.Name
	Entries []IndexEntry `xml:"train_track"`
}

type IndexEntry struct {
	// Filename may be a full Windows path; only its base name is used.
	Filename *string `xml:"filename,attr"`
	// TrainConfigName is the display name.
	TrainConfigName *string `xml:"trainConfigName,attr"`
}

var errJunk = errors.New("junk after document element")

// FormatError is returned when an index cannot be parsed.
type FormatError struct {
	Path string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("index %s: %s", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

func ReadIndex(path string) (Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return Index{}, fmt.Errorf("open index: %w", err)
	}
	defer f.Close()
	var idx Index
	d := xml.NewDecoder(f)
	// indices are often saved in a legacy code page
	d.CharsetReader = charset.NewReaderLabel
	err = d.Decode(&idx)
	if err != nil {
		return Index{}, &FormatError{Path: path, Err: err}
	}
	err = checkTrailing(d)
	if err != nil {
		return Index{}, &FormatError{Path: path, Err: err}
	}
	return idx, nil
}

// checkTrailing allows only comments, processing instructions and whitespace after the root element.
func checkTrailing(d *xml.Decoder) error {
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		switch tok := tok.(type) {
		case xml.Comment, xml.ProcInst:
		case xml.CharData:
			if len(bytes.TrimSpace(tok)) != 0 {
				return errJunk
			}
		default:
			return errJunk
		}
	}
}

func baseName(ref string) string {
	if i := strings.LastIndexAny(ref, `/\`); i != -1 {
		return ref[i+1:]
	}
	return ref
}

// resolve finds a track file: the base name relative to the working directory if it exists there, else relative to the index's directory.
func resolve(indexPath, ref string) string {
	base := baseName(ref)
	if _, err := os.Stat(base); err == nil {
		return base
	}
	return filepath.Join(filepath.Dir(indexPath), base)
}
