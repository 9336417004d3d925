// Package pipeline orchestrates a full acquisition run: clinics are
// processed in batches, each batch drives one browser, and every site walks
// the same state machine from homepage fetch to persisted classification.
// Site failures degrade to an uncertain row; they never abort the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/hazyhaar/vetmap/browser"
	"github.com/hazyhaar/vetmap/classify"
	"github.com/hazyhaar/vetmap/crawl"
	"github.com/hazyhaar/vetmap/extract"
	"github.com/hazyhaar/vetmap/keywords"
	"github.com/hazyhaar/vetmap/language"
	"github.com/hazyhaar/vetmap/overlay"
	"github.com/hazyhaar/vetmap/people"
	"github.com/hazyhaar/vetmap/profile"
	"github.com/hazyhaar/vetmap/store"
	"github.com/hazyhaar/vetmap/teampage"
)

// Config bounds a run.
type Config struct {
	// BatchSize is how many clinics share one browser instance.
	BatchSize int
	// ConcurrentBatches limits batches running at once.
	ConcurrentBatches int64
	// SiteTimeout is the wall-clock budget for one site, all retries
	// included.
	SiteTimeout time.Duration
	// SiteRetries bounds fetch attempts per site; the browser is recycled
	// between attempts.
	SiteRetries int
	// RetryDelay is the pause after a failed attempt.
	RetryDelay time.Duration
	// BlockThreshold is how many consecutive bot-block detections flip the
	// run into conservative mode. Negative disables the switch.
	BlockThreshold int
	// ConservativeDelay is the extra pause before each site once
	// conservative mode is active.
	ConservativeDelay time.Duration
	// RunID tags every row written by this run. Empty generates one.
	RunID string

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 20
	}
	if c.ConcurrentBatches <= 0 {
		c.ConcurrentBatches = 2
	}
	if c.SiteTimeout <= 0 {
		c.SiteTimeout = 5 * time.Minute
	}
	if c.SiteRetries <= 0 {
		c.SiteRetries = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 5 * time.Second
	}
	if c.BlockThreshold == 0 {
		c.BlockThreshold = 5
	}
	if c.ConservativeDelay <= 0 {
		c.ConservativeDelay = 10 * time.Second
	}
	if c.RunID == "" {
		c.RunID = uuid.NewString()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Deps are the collaborators of an Orchestrator, built once in main.
type Deps struct {
	DB         *store.DB
	Content    *store.ContentStore
	Locator    *teampage.Locator
	Aggregator *profile.Aggregator
	Dismisser  *overlay.Dismisser
	Classifier *classify.Classifier
	// Extractor is optional; nil disables person extraction.
	Extractor people.Extractor
	// Browser configures the per-batch browser instances.
	Browser browser.Config
}

// batchBrowser is the browser lifecycle a batch needs; satisfied by
// browser.Manager.
type batchBrowser interface {
	Start(ctx context.Context) error
	Recycle(ctx context.Context) error
	Close() error
	NewSession(ctx context.Context) (*browser.Session, error)
}

// Orchestrator runs the acquisition pipeline.
type Orchestrator struct {
	cfg        Config
	deps       Deps
	progress   *Progress
	blocks     *BlockCounter
	newBrowser func() batchBrowser
}

// New builds an Orchestrator; zero config fields get defaults.
func New(cfg Config, deps Deps) *Orchestrator {
	cfg.defaults()
	return &Orchestrator{
		cfg:        cfg,
		deps:       deps,
		progress:   &Progress{},
		blocks:     NewBlockCounter(cfg.BlockThreshold),
		newBrowser: func() batchBrowser { return browser.NewManager(deps.Browser) },
	}
}

// Progress exposes the run counters for the status API.
func (o *Orchestrator) Progress() *Progress { return o.progress }

// Run processes all clinics in batches and blocks until every batch
// finished or the context is cancelled.
func (o *Orchestrator) Run(ctx context.Context, clinics []store.Clinic) error {
	o.progress.SetTotal(len(clinics))

	var batches [][]store.Clinic
	for start := 0; start < len(clinics); start += o.cfg.BatchSize {
		end := start + o.cfg.BatchSize
		if end > len(clinics) {
			end = len(clinics)
		}
		batches = append(batches, clinics[start:end])
	}
	o.cfg.Logger.Info("pipeline: run starting",
		"run_id", o.cfg.RunID, "clinics", len(clinics), "batches", len(batches))

	sem := semaphore.NewWeighted(o.cfg.ConcurrentBatches)
	g, gctx := errgroup.WithContext(ctx)
	for i, batch := range batches {
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			return o.runBatch(gctx, i, batch)
		})
	}
	return g.Wait()
}

// runBatch processes one batch on a dedicated browser and persists the
// snapshot once at the end.
func (o *Orchestrator) runBatch(ctx context.Context, idx int, batch []store.Clinic) error {
	logger := o.cfg.Logger.With("batch", idx)
	logger.Info("pipeline: batch starting", "size", len(batch))

	mgr := o.newBrowser()
	if err := mgr.Start(ctx); err != nil {
		return fmt.Errorf("pipeline: batch %d: start browser: %w", idx, err)
	}
	defer mgr.Close()

	var results []store.Clinic
	for _, clinic := range batch {
		if ctx.Err() != nil {
			break
		}
		if o.blocks.Tripped() {
			select {
			case <-ctx.Done():
			case <-time.After(o.cfg.ConservativeDelay):
			}
		}

		out, persist := o.processSite(ctx, mgr, logger, clinic)
		o.progress.MarkProcessed()
		if out.ClinicStatus == classify.StatusUncertain {
			o.progress.MarkUncertain()
		}
		if persist {
			results = append(results, out)
		}
	}

	if err := o.deps.DB.SaveBatch(context.WithoutCancel(ctx), results); err != nil {
		return fmt.Errorf("pipeline: batch %d: %w", idx, err)
	}
	logger.Info("pipeline: batch done", "persisted", len(results))
	return ctx.Err()
}

// processSite walks one clinic through the state machine. The second return
// reports whether the row should be written; skipped clinics keep their
// existing row.
func (o *Orchestrator) processSite(ctx context.Context, mgr batchBrowser, logger *slog.Logger, clinic store.Clinic) (store.Clinic, bool) {
	logger = logger.With("clinic", clinic.Name)

	done, err := o.deps.DB.AlreadyClassified(ctx, clinic.Name)
	if err != nil {
		logger.Warn("pipeline: resumability lookup failed", "error", err)
	}
	if done || clinic.ClinicStatus == classify.StatusYes || clinic.ClinicStatus == classify.StatusNo {
		logger.Info("pipeline: skipping, already classified")
		return clinic, false
	}

	website, ok := normalizeWebsite(clinic.Website)
	if !ok {
		logger.Info("pipeline: invalid website, marking uncertain", "website", clinic.Website)
		clinic.ClinicStatus = classify.StatusUncertain
		clinic.Reason = classify.ReasonSkipped
		clinic.RunID = o.cfg.RunID
		return clinic, true
	}
	clinic.Website = website

	// A combined document from an earlier run is classified directly; a
	// screenshot-only site already exhausted its textual options.
	if text, lang, ok := o.savedDocument(clinic.Name); ok {
		logger.Info("pipeline: reusing saved document")
		return o.classifyText(ctx, logger, clinic, text, lang), true
	}
	if o.deps.Content.HasArtifact(clinic.Name) {
		logger.Info("pipeline: skipping, screenshot artifact exists")
		return clinic, false
	}

	siteCtx, cancel := context.WithTimeout(ctx, o.cfg.SiteTimeout)
	defer cancel()

	var out store.Clinic
	var visitErr error
	for attempt := 1; attempt <= o.cfg.SiteRetries; attempt++ {
		out, visitErr = o.visit(siteCtx, mgr, logger, clinic)
		if visitErr == nil {
			return out, true
		}
		logger.Warn("pipeline: visit failed", "attempt", attempt, "error", visitErr)
		if siteCtx.Err() != nil {
			break
		}
		if err := mgr.Recycle(siteCtx); err != nil {
			logger.Warn("pipeline: browser recycle failed", "error", err)
			break
		}
		select {
		case <-siteCtx.Done():
		case <-time.After(o.cfg.RetryDelay):
		}
	}

	logger.Warn("pipeline: site failed, marking uncertain", "error", visitErr)
	clinic.ClinicStatus = classify.StatusUncertain
	clinic.Reason = classify.ReasonSkipped
	clinic.RunID = o.cfg.RunID
	return clinic, true
}

// siteSource is what a site visit needs from a fetching session; satisfied
// by siteFetcher.
type siteSource interface {
	teampage.Fetcher
	profile.TextFetcher
	FetchPage(ctx context.Context, pageURL string) (html, text string, err error)
	setLanguage(lang string)
	VisiblyNonEmpty(ctx context.Context) bool
	Screenshot(ctx context.Context) ([]byte, error)
}

// visit performs one end-to-end attempt on a site.
func (o *Orchestrator) visit(ctx context.Context, mgr batchBrowser, logger *slog.Logger, clinic store.Clinic) (store.Clinic, error) {
	session, err := mgr.NewSession(ctx)
	if err != nil {
		return clinic, err
	}
	defer session.Close()
	return o.visitSite(ctx, newSiteFetcher(session, o.deps.Dismisser), logger, clinic)
}

// extraction is one full extraction round. The combined document is what
// gets persisted; the classification text additionally carries the service
// pages.
type extraction struct {
	doc       string
	classText string
}

// extractSite runs one extraction round: load the team page fully, discover
// profile links in the expanded DOM, aggregate the combined document, then
// append the service pages for the specialization scan.
func (o *Orchestrator) extractSite(ctx context.Context, src siteSource, logger *slog.Logger, located teampage.Result, baseDomain string) (extraction, error) {
	html, teamText, err := src.FetchPage(ctx, located.TeamURL)
	if err != nil {
		return extraction{}, err
	}
	profiles, err := o.deps.Aggregator.Discover(html, located.TeamURL, baseDomain, located.Config.ExcludeKeywords)
	if err != nil {
		logger.Warn("pipeline: profile discovery failed", "error", err)
	}

	doc := o.deps.Aggregator.Aggregate(ctx, src, located.TeamURL, teamText, profiles)
	if !extract.IsValidContent(doc) {
		if extract.IsBotBlocked(doc) && o.blocks.Hit() {
			logger.Warn("pipeline: consecutive blocks crossed threshold, conservative mode on")
		}
		return extraction{}, fmt.Errorf("pipeline: combined content invalid")
	}
	o.blocks.Reset()

	classText := doc
	for _, link := range serviceLinks(html, located.TeamURL, keywords.ServicePageKeywords(located.Language)) {
		text, err := src.FetchText(ctx, link)
		if err != nil {
			continue
		}
		classText += " " + text
	}
	return extraction{doc: doc, classText: classText}, nil
}

func (o *Orchestrator) visitSite(ctx context.Context, src siteSource, logger *slog.Logger, clinic store.Clinic) (store.Clinic, error) {
	located, err := o.deps.Locator.Locate(ctx, src, clinic.Website)
	if err != nil {
		return clinic, err
	}
	src.setLanguage(located.Language)
	logger.Info("pipeline: team page located",
		"team_url", located.TeamURL, "lang", located.Language)

	baseDomain := ""
	if u, err := url.Parse(clinic.Website); err == nil {
		baseDomain = u.Host
	}

	type artifact struct {
		ext        extraction
		screenshot []byte
	}
	art, how, err := RunChain(ctx, logger, []Strategy[artifact]{
		{Name: "combined_text", Run: func(ctx context.Context) (artifact, error) {
			ext, err := o.extractSite(ctx, src, logger, located, baseDomain)
			if err != nil {
				return artifact{}, err
			}
			return artifact{ext: ext}, nil
		}},
		{Name: "screenshot", Run: func(ctx context.Context) (artifact, error) {
			if !src.VisiblyNonEmpty(ctx) {
				return artifact{}, fmt.Errorf("pipeline: page visually empty")
			}
			png, err := src.Screenshot(ctx)
			if err != nil {
				return artifact{}, err
			}
			return artifact{screenshot: png}, nil
		}},
	})
	if err != nil {
		return clinic, err
	}

	if art.screenshot != nil {
		// No textual signal to classify; the screenshot is the artifact.
		if err := o.deps.Content.SaveScreenshot(clinic.Name, art.screenshot); err != nil {
			logger.Warn("pipeline: screenshot save failed", "error", err)
		}
		logger.Info("pipeline: screenshot fallback", "strategy", how)
		clinic.ClinicStatus = classify.StatusUncertain
		clinic.Reason = classify.ReasonSkipped
		clinic.RunID = o.cfg.RunID
		return clinic, nil
	}

	if err := o.deps.Content.SaveText(clinic.Name, art.ext.doc); err != nil {
		logger.Warn("pipeline: document save failed", "error", err)
	}

	out := o.classifyText(ctx, logger, clinic, art.ext.classText, located.Language)

	// A species miss gets exactly one more full extraction round before the
	// empty result stands.
	if out.Reason == classify.ReasonNoSpeciesMatch && ctx.Err() == nil {
		if retryExt, err := o.extractSite(ctx, src, logger, located, baseDomain); err == nil {
			retry := o.deps.Classifier.Specialization(retryExt.classText, located.Language)
			if retry.Specialization != "" {
				out.Specialization = retry.Specialization
				out.Reason = retry.Reason
			}
		}
	}
	return out, nil
}

// classifyText runs both classifiers and, when configured, person
// extraction over a combined document.
func (o *Orchestrator) classifyText(ctx context.Context, logger *slog.Logger, clinic store.Clinic, text, lang string) store.Clinic {
	clinic.ClinicStatus = o.deps.Classifier.ClinicStatus(text, lang)
	if clinic.Specialization == "" {
		res := o.deps.Classifier.Specialization(text, lang)
		clinic.Specialization = res.Specialization
		clinic.Reason = res.Reason
	} else {
		clinic.Reason = classify.ReasonSkipped
	}
	clinic.RunID = o.cfg.RunID

	if o.deps.Extractor != nil && clinic.ClinicStatus == classify.StatusYes {
		persons, err := o.deps.Extractor.ExtractPeople(ctx, text)
		if err != nil {
			var pe *people.ParseError
			if errors.As(err, &pe) {
				if saveErr := o.deps.Content.SaveFailed(clinic.Name, pe.Raw); saveErr != nil {
					logger.Warn("pipeline: failed-reply save failed", "error", saveErr)
				}
			}
			logger.Warn("pipeline: person extraction failed", "error", err)
		} else {
			counts := people.Count(persons)
			clinic.Staff = &counts
		}
	}
	return clinic
}

// savedDocument loads the combined document of an earlier run, detecting
// its language for classification.
func (o *Orchestrator) savedDocument(name string) (text, lang string, ok bool) {
	data, err := os.ReadFile(o.deps.Content.TextPath(name))
	if err != nil || len(strings.TrimSpace(string(data))) == 0 {
		return "", "", false
	}
	text = string(data)
	return text, language.Detect(text), true
}

// normalizeWebsite validates a clinic website; non-HTML targets fall back
// to the site root.
func normalizeWebsite(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}
	if !crawl.IsProbablyHTML(raw) {
		return u.Scheme + "://" + u.Host + "/", true
	}
	return raw, true
}
