// Package overlay dismisses cookie-consent banners and similar modals before
// content extraction. It is a bounded-retry state machine: scan interactive
// elements across the page and its sub-frames for an accept button, click it,
// and if clicking never succeeds fall back to removing overlay DOM nodes
// outright. It never blocks indefinitely and never fails the visit;
// extraction proceeds either way.
package overlay

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/vetmap/fuzzy"
	"github.com/hazyhaar/vetmap/textnorm"
)

// State of the dismissal machine.
type State int

const (
	// StateScanning is the initial state while click attempts remain.
	StateScanning State = iota
	// StateClickAttempted records that a matching element was pressed but
	// the click did not land.
	StateClickAttempted
	// StateDismissed is terminal: an accept button was clicked.
	StateDismissed
	// StateJSFallback is terminal: no click landed and the overlay nodes
	// were removed from the DOM instead.
	StateJSFallback
	// StateGaveUp is terminal: even the DOM removal failed.
	StateGaveUp
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateClickAttempted:
		return "click_attempted"
	case StateDismissed:
		return "dismissed"
	case StateJSFallback:
		return "js_fallback"
	case StateGaveUp:
		return "gave_up"
	}
	return "unknown"
}

// Dismissed reports whether the terminal state means the banner was
// actually clicked away.
func (s State) Dismissed() bool { return s == StateDismissed }

// closeSelectors hit explicit close buttons before the text scan; many
// consent dialogs carry an anonymous "X" that no keyword list can match.
var closeSelectors = []string{
	".cc-close", ".ui-dialog-titlebar-close", ".modal-close", ".popup-close",
	".close-button", "[aria-label='Close']",
}

// removeOverlaysJS strips nodes whose class or id smells like an overlay.
// Applied as the last resort: the banner may still obstruct visually but no
// longer owns the DOM.
const removeOverlaysJS = `() => {
	const selectors = [
		"div[class*='overlay']",
		"div[class*='cookie']",
		"div[class*='consent']",
		"div[class*='popup']",
		"div[class*='backdrop']",
		"div[id*='overlay']",
		"div[id*='cookie']",
		"div[id*='consent']",
		"div[id*='popup']",
		"div[id*='backdrop']"
	];
	selectors.forEach(selector => {
		document.querySelectorAll(selector).forEach(el => el.remove());
	});
}`

// Dismisser holds the scan bounds. One Dismisser is shared across site
// visits; it carries no per-visit state.
type Dismisser struct {
	matcher       *fuzzy.Matcher
	maxAttempts   int
	maxElements   int
	retryDelay    time.Duration
	actionTimeout time.Duration
	logger        *slog.Logger
}

// Option configures a Dismisser.
type Option func(*Dismisser)

// WithAttempts bounds the click-scan attempts before the JS fallback.
func WithAttempts(n int) Option {
	return func(d *Dismisser) { d.maxAttempts = n }
}

// WithMaxElements bounds how many interactive elements one frame scan
// inspects.
func WithMaxElements(n int) Option {
	return func(d *Dismisser) { d.maxElements = n }
}

// WithRetryDelay sets the wait between scan attempts.
func WithRetryDelay(delay time.Duration) Option {
	return func(d *Dismisser) { d.retryDelay = delay }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dismisser) { d.logger = l }
}

// New creates a Dismisser with the given matcher (nil = default threshold).
func New(m *fuzzy.Matcher, opts ...Option) *Dismisser {
	if m == nil {
		m = fuzzy.New(0)
	}
	d := &Dismisser{
		matcher:       m,
		maxAttempts:   3,
		maxElements:   30,
		retryDelay:    2 * time.Second,
		actionTimeout: 5 * time.Second,
		logger:        slog.Default(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// clickTarget is one interactive element the scanner may press. The seam
// keeps the decision logic testable without a live browser.
type clickTarget interface {
	// VisibleText returns the element's text, or ok=false when the
	// element is hidden or unreadable.
	VisibleText() (text string, ok bool)
	// Click scrolls the element into view and presses it.
	Click() error
}

// scanTargets walks the targets in order and clicks the first one whose
// normalised text matches a cookie keyword, literally or fuzzily. attempted
// reports that at least one matching element was pressed, even when every
// press failed.
func (d *Dismisser) scanTargets(targets []clickTarget, cookieKeywords []string) (clicked, attempted bool) {
	limit := len(targets)
	if limit > d.maxElements {
		limit = d.maxElements
	}
	for _, t := range targets[:limit] {
		text, ok := t.VisibleText()
		if !ok {
			continue
		}
		norm := textnorm.Normalize(text)
		if norm == "" {
			continue
		}
		if !d.matcher.MatchesAny(norm, cookieKeywords) {
			continue
		}
		attempted = true
		if err := t.Click(); err != nil {
			continue
		}
		return true, true
	}
	return false, attempted
}

// Dismiss runs the state machine on a live page. cookieKeywords must
// already be normalised (keyword config does this at load). The returned
// state is terminal: StateDismissed on a successful click, StateJSFallback
// when only the DOM-removal fallback ran, StateGaveUp when even that failed.
func (d *Dismisser) Dismiss(ctx context.Context, page *rod.Page, cookieKeywords []string) State {
	state := StateScanning
	for attempt := 0; attempt < d.maxAttempts; attempt++ {
		if ctx.Err() != nil {
			break
		}
		clicked, attempted := d.dismissInFrame(ctx, page, cookieKeywords)
		if clicked {
			d.logger.Debug("overlay: dismissed in main frame", "attempt", attempt+1)
			return StateDismissed
		}
		for _, frame := range d.subFrames(page) {
			fClicked, fAttempted := d.dismissInFrame(ctx, frame, cookieKeywords)
			if fClicked {
				d.logger.Debug("overlay: dismissed in sub-frame", "attempt", attempt+1)
				return StateDismissed
			}
			attempted = attempted || fAttempted
		}
		if attempted {
			state = StateClickAttempted
			d.logger.Debug("overlay: matching element resisted the click",
				"attempt", attempt+1, "state", state)
		}

		select {
		case <-ctx.Done():
		case <-time.After(d.retryDelay):
		}
	}

	evalCtx, cancel := context.WithTimeout(ctx, d.actionTimeout)
	defer cancel()
	if _, err := page.Context(evalCtx).Eval(removeOverlaysJS); err != nil {
		d.logger.Debug("overlay: js fallback failed", "error", err, "state", state)
		return StateGaveUp
	}
	return StateJSFallback
}

// dismissInFrame tries the close-button pass, then the keyword scan, within
// one frame.
func (d *Dismisser) dismissInFrame(ctx context.Context, frame *rod.Page, cookieKeywords []string) (clicked, attempted bool) {
	if d.clickCloseButton(frame) {
		return true, true
	}

	elements, err := frame.Elements("button, a, div, [role='button']")
	if err != nil {
		return false, false
	}
	targets := make([]clickTarget, 0, len(elements))
	for _, el := range elements {
		targets = append(targets, &rodTarget{el: el, timeout: d.actionTimeout})
	}
	return d.scanTargets(targets, cookieKeywords)
}

func (d *Dismisser) clickCloseButton(frame *rod.Page) bool {
	for _, sel := range closeSelectors {
		has, el, err := frame.Has(sel)
		if err != nil || !has {
			continue
		}
		if visible, err := el.Visible(); err != nil || !visible {
			continue
		}
		if err := el.Timeout(d.actionTimeout).ScrollIntoView(); err != nil {
			continue
		}
		if err := el.Timeout(d.actionTimeout).Click(proto.InputMouseButtonLeft, 1); err != nil {
			continue
		}
		time.Sleep(300 * time.Millisecond)
		return true
	}
	return false
}

func (d *Dismisser) subFrames(page *rod.Page) []*rod.Page {
	iframes, err := page.Elements("iframe")
	if err != nil {
		return nil
	}
	var frames []*rod.Page
	for _, el := range iframes {
		frame, err := el.Frame()
		if err != nil {
			continue
		}
		frames = append(frames, frame)
	}
	return frames
}

// rodTarget adapts a live element to the clickTarget seam.
type rodTarget struct {
	el      *rod.Element
	timeout time.Duration
}

func (r *rodTarget) VisibleText() (string, bool) {
	visible, err := r.el.Visible()
	if err != nil || !visible {
		return "", false
	}
	text, err := r.el.Timeout(r.timeout).Text()
	if err != nil {
		return "", false
	}
	return text, true
}

func (r *rodTarget) Click() error {
	if err := r.el.Timeout(r.timeout).ScrollIntoView(); err != nil {
		return err
	}
	if err := r.el.Timeout(r.timeout).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return err
	}
	time.Sleep(500 * time.Millisecond)
	return nil
}
