package overlay

import (
	"errors"
	"testing"

	"github.com/hazyhaar/vetmap/fuzzy"
)

type fakeTarget struct {
	text    string
	hidden  bool
	clickEr error
	clicked bool
}

func (f *fakeTarget) VisibleText() (string, bool) {
	if f.hidden {
		return "", false
	}
	return f.text, true
}

func (f *fakeTarget) Click() error {
	if f.clickEr != nil {
		return f.clickEr
	}
	f.clicked = true
	return nil
}

func TestScanTargetsClicksAcceptButton(t *testing.T) {
	d := New(fuzzy.New(0))
	nav := &fakeTarget{text: "Impressum"}
	accept := &fakeTarget{text: "Alle akzeptieren"}
	other := &fakeTarget{text: "Mehr erfahren"}

	clicked, attempted := d.scanTargets([]clickTarget{nav, accept, other}, []string{"akzeptieren"})
	if !clicked || !attempted {
		t.Fatal("expected a click on the accept button")
	}
	if !accept.clicked {
		t.Error("accept button was not clicked")
	}
	if nav.clicked || other.clicked {
		t.Error("non-matching targets were clicked")
	}
}

func TestScanTargetsSkipsHiddenAndFailedClicks(t *testing.T) {
	d := New(fuzzy.New(0))
	hidden := &fakeTarget{text: "Alle akzeptieren", hidden: true}
	broken := &fakeTarget{text: "Akzeptieren", clickEr: errors.New("detached")}
	working := &fakeTarget{text: "Accept all cookies"}

	clicked, _ := d.scanTargets([]clickTarget{hidden, broken, working}, []string{"akzeptieren", "accept"})
	if !clicked {
		t.Fatal("expected the scan to fall through to the working target")
	}
	if !working.clicked {
		t.Error("working target was not clicked")
	}
}

func TestScanTargetsNoMatch(t *testing.T) {
	d := New(fuzzy.New(0))
	targets := []clickTarget{
		&fakeTarget{text: "Kontakt"},
		&fakeTarget{text: "Unsere Leistungen"},
	}
	clicked, attempted := d.scanTargets(targets, []string{"akzeptieren"})
	if clicked || attempted {
		t.Fatal("expected no click on unrelated elements")
	}
}

func TestScanTargetsReportsFailedAttempt(t *testing.T) {
	d := New(fuzzy.New(0))
	broken := &fakeTarget{text: "Alle akzeptieren", clickEr: errors.New("covered by another element")}

	clicked, attempted := d.scanTargets([]clickTarget{broken}, []string{"akzeptieren"})
	if clicked {
		t.Fatal("failed click reported as dismissal")
	}
	if !attempted {
		t.Fatal("failed click on a matching element not reported as an attempt")
	}
}

func TestScanTargetsElementCap(t *testing.T) {
	d := New(fuzzy.New(0), WithMaxElements(2))
	beyond := &fakeTarget{text: "Alle akzeptieren"}
	targets := []clickTarget{
		&fakeTarget{text: "Home"},
		&fakeTarget{text: "Kontakt"},
		beyond,
	}
	if clicked, _ := d.scanTargets(targets, []string{"akzeptieren"}); clicked {
		t.Fatal("expected the scan to stop at the element cap")
	}
	if beyond.clicked {
		t.Error("target past the cap was clicked")
	}
}

func TestScanTargetsNormalisesText(t *testing.T) {
	d := New(fuzzy.New(0))
	accept := &fakeTarget{text: "  Tout ACCEPTER\n"}
	if clicked, _ := d.scanTargets([]clickTarget{accept}, []string{"accepter"}); !clicked {
		t.Fatal("expected a match after normalisation")
	}
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		StateScanning:       "scanning",
		StateClickAttempted: "click_attempted",
		StateDismissed:      "dismissed",
		StateJSFallback:     "js_fallback",
		StateGaveUp:         "gave_up",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
	if !StateDismissed.Dismissed() {
		t.Error("StateDismissed.Dismissed() = false")
	}
	if StateGaveUp.Dismissed() {
		t.Error("StateGaveUp.Dismissed() = true")
	}
}
