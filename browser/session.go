package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// loadMoreSelectors target "load more" style pagination buttons that hide
// parts of a staff list behind a click.
var loadMoreSelectors = []string{
	"#blogloader",
	".e-loop__load-more .elementor-button-link",
	"a.elementor-button-link[role='button']",
	"button.load-more",
	"a.load-more",
	".load-more",
	".show-more",
	".btn-more",
	".more-btn",
	"button[class*='load']",
	"a[class*='load']",
	"button[class*='more']",
	"a[class*='more']",
}

// Session is one isolated site visit: its own incognito browser context,
// cookies, user agent and viewport. Sessions are not safe for concurrent
// use; each in-flight site visit owns exactly one.
type Session struct {
	browser *rod.Browser // incognito context
	page    *rod.Page
	cfg     *Config
}

// NewSession opens an isolated incognito context with a stealth page, a
// rotated user agent and the configured viewport.
func (m *Manager) NewSession(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	b := m.browser
	m.mu.Unlock()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	inc, err := b.Incognito()
	if err != nil {
		return nil, fmt.Errorf("browser: incognito context: %w", err)
	}

	page, err := stealth.Page(inc)
	if err != nil {
		return nil, fmt.Errorf("browser: stealth page: %w", err)
	}

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent: pickUserAgent(),
	}); err != nil {
		m.cfg.Logger.Warn("browser: set user agent failed", "error", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             m.cfg.ViewportWidth,
		Height:            m.cfg.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		m.cfg.Logger.Warn("browser: set viewport failed", "error", err)
	}

	return &Session{browser: inc, page: page, cfg: &m.cfg}, nil
}

// Page exposes the underlying Rod page for components that walk elements
// and frames directly.
func (s *Session) Page() *rod.Page { return s.page }

// ActionTimeout is the per-interaction bound components should apply to
// individual element operations.
func (s *Session) ActionTimeout() time.Duration { return s.cfg.ActionTimeout }

// Close tears the incognito context down, taking all its pages with it.
func (s *Session) Close() {
	if s.page != nil {
		_ = s.page.Close()
	}
}

// Navigate loads a URL and waits for the load event, both bounded by the
// navigation timeout. A timeout surfaces as a recoverable error.
func (s *Session) Navigate(ctx context.Context, pageURL string) error {
	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavTimeout)
	defer cancel()

	if err := s.page.Context(navCtx).Navigate(pageURL); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := s.page.Context(navCtx).WaitLoad(); err != nil {
		s.cfg.Logger.Debug("browser: wait load timeout", "url", pageURL, "error", err)
	}
	return nil
}

// Fetch navigates to a URL and returns the rendered DOM.
func (s *Session) Fetch(ctx context.Context, pageURL string) (string, error) {
	if err := s.Navigate(ctx, pageURL); err != nil {
		return "", err
	}
	return s.HTML(ctx)
}

// HTML serialises the current DOM.
func (s *Session) HTML(ctx context.Context) (string, error) {
	evalCtx, cancel := context.WithTimeout(ctx, s.cfg.NavTimeout)
	defer cancel()

	html, err := s.page.Context(evalCtx).HTML()
	if err != nil {
		return "", fmt.Errorf("browser: get html: %w", err)
	}
	return html, nil
}

// BodyText returns the rendered inner text of the body.
func (s *Session) BodyText(ctx context.Context) (string, error) {
	evalCtx, cancel := context.WithTimeout(ctx, s.cfg.ActionTimeout)
	defer cancel()

	res, err := s.page.Context(evalCtx).Eval(`() => document.body ? document.body.innerText : ""`)
	if err != nil {
		return "", fmt.Errorf("browser: body text: %w", err)
	}
	return res.Value.Str(), nil
}

// VisiblyNonEmpty reports whether the rendered page shows enough text to be
// worth a screenshot fallback.
func (s *Session) VisiblyNonEmpty(ctx context.Context) bool {
	text, err := s.BodyText(ctx)
	if err != nil {
		return false
	}
	return len(text) >= 300
}

// ScrollToBottom scrolls until the document height stops growing, bounded
// at maxScrolls iterations. Lazy-loaded staff lists need it.
func (s *Session) ScrollToBottom(ctx context.Context, maxScrolls int) {
	if maxScrolls <= 0 {
		maxScrolls = 20
	}
	lastHeight := -1
	for i := 0; i < maxScrolls; i++ {
		evalCtx, cancel := context.WithTimeout(ctx, s.cfg.ActionTimeout)
		_, err := s.page.Context(evalCtx).Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
		cancel()
		if err != nil {
			return
		}

		time.Sleep(750 * time.Millisecond)

		evalCtx, cancel = context.WithTimeout(ctx, s.cfg.ActionTimeout)
		res, err := s.page.Context(evalCtx).Eval(`() => document.body.scrollHeight`)
		cancel()
		if err != nil {
			return
		}
		height := res.Value.Int()
		if height == lastHeight {
			return
		}
		lastHeight = height
	}
}

// ClickLoadMore repeatedly clicks visible "load more" buttons until none
// remain or the attempt bound is reached.
func (s *Session) ClickLoadMore(ctx context.Context, maxAttempts int) {
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	for i := 0; i < maxAttempts; i++ {
		if ctx.Err() != nil {
			return
		}

		var button *rod.Element
		for _, sel := range loadMoreSelectors {
			has, el, err := s.page.Has(sel)
			if err != nil || !has {
				continue
			}
			if visible, err := el.Visible(); err == nil && visible {
				button = el
				break
			}
		}
		if button == nil {
			return
		}

		if err := button.Timeout(s.cfg.ActionTimeout).ScrollIntoView(); err != nil {
			return
		}
		if err := button.Timeout(s.cfg.ActionTimeout).Click(proto.InputMouseButtonLeft, 1); err != nil {
			return
		}

		time.Sleep(time.Second)
		s.ScrollToBottom(ctx, 5)
	}
}

// Screenshot captures the full page as PNG, growing the viewport to the
// document height first so nothing is clipped.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	s.ScrollToBottom(ctx, 20)

	evalCtx, cancel := context.WithTimeout(ctx, s.cfg.ActionTimeout)
	res, err := s.page.Context(evalCtx).Eval(`() => document.body.scrollHeight`)
	cancel()
	if err == nil {
		if h := res.Value.Int(); h > 0 {
			_ = s.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
				Width:             s.cfg.ViewportWidth,
				Height:            h,
				DeviceScaleFactor: 1,
			})
		}
	}

	shotCtx, cancel := context.WithTimeout(ctx, s.cfg.NavTimeout)
	defer cancel()
	data, err := s.page.Context(shotCtx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("browser: screenshot: %w", err)
	}
	return data, nil
}
