package sakuragi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nyiyui.ca/hato/kidou/edit"
	"nyiyui.ca/hato/kidou/track"
	"nyiyui.ca/hato/kidou/track/dat"
	"nyiyui.ca/hato/kidou/trackset"
)

func TestIndex(t *testing.T) {
	tr := track.New("", "/layouts/main.dat")
	var err error
	tr.Segments, err = dat.Parse(strings.NewReader("c 0 0 0 5 5 5 10 0 0 14 1 Central 8North\n"), tr.Points)
	if err != nil {
		t.Fatal(err)
	}
	ts := trackset.New("/layouts/traintracks.xml")
	ts.Register("main <line>", tr)
	s := edit.New(ts, nil)
	_, err = s.SetVisible("main <line>", false)
	if err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	New(s).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"/layouts/traintracks.xml",
		"1 track ",
		"main &lt;line&gt;",
		"<code>main.dat</code>",
		"Central",
		"North",
		`class="hidden"`,
		"<td>no</td>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q in:\n%s", want, body)
		}
	}
}
