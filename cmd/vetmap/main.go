// Command vetmap acquires veterinary clinic websites, locates their team
// pages and writes classified rows to SQLite.
//
// Usage:
//
//	vetmap -input clinics.csv                  # classify every clinic in the CSV
//	vetmap -url https://tierarzt-beispiel.ch   # single-site debug run
//	vetmap -config vetmap.yaml -input clinics.csv -listen :8090
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/vetmap/browser"
	"github.com/hazyhaar/vetmap/classify"
	"github.com/hazyhaar/vetmap/crawl"
	"github.com/hazyhaar/vetmap/fuzzy"
	"github.com/hazyhaar/vetmap/keywords"
	"github.com/hazyhaar/vetmap/overlay"
	"github.com/hazyhaar/vetmap/people"
	"github.com/hazyhaar/vetmap/pipeline"
	"github.com/hazyhaar/vetmap/profile"
	"github.com/hazyhaar/vetmap/statusapi"
	"github.com/hazyhaar/vetmap/store"
	"github.com/hazyhaar/vetmap/teampage"
)

func main() {
	configPath := flag.String("config", "", "path to vetmap.yaml config file")
	inputPath := flag.String("input", "", "CSV of clinics (Name,Website[,Clinic,Specialization])")
	singleURL := flag.String("url", "", "process a single website and exit")
	docsDir := flag.String("docs-dir", "", "directory for per-clinic text and screenshot artifacts")
	dbPath := flag.String("db", "", "path to the SQLite results database")
	listenAddr := flag.String("listen", "", "serve /healthz and /progress on this address")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *inputPath, *singleURL, *docsDir, *dbPath, *listenAddr); err != nil {
		logger.Error("vetmap: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, inputPath, singleURL, docsDir, dbPath, listenAddr string) error {
	if inputPath == "" && singleURL == "" {
		fmt.Fprintln(os.Stderr, "usage: vetmap -input <csv> | -url <url> [-config <file>] [-listen <addr>]")
		os.Exit(1)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if docsDir != "" {
		cfg.Paths.DocsDir = docsDir
	}
	if dbPath != "" {
		cfg.Paths.DB = dbPath
	}
	if listenAddr != "" {
		cfg.Listen = listenAddr
	}

	var clinics []store.Clinic
	if singleURL != "" {
		clinics = []store.Clinic{{Name: "debug", Website: singleURL}}
	} else {
		clinics, err = store.LoadClinicsCSV(inputPath)
		if err != nil {
			return err
		}
	}
	logger.Info("vetmap: input loaded", "clinics", len(clinics))

	matcher := fuzzy.New(cfg.Keywords.FuzzyThreshold)

	teamConfigs, err := loadTeamConfigs(cfg.Keywords.TeamConfig)
	if err != nil {
		return err
	}
	classifier, err := buildClassifier(matcher, cfg.Keywords)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.Paths.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	content, err := store.NewContentStore(cfg.Paths.DocsDir)
	if err != nil {
		return err
	}

	deps := pipeline.Deps{
		DB:         db,
		Content:    content,
		Locator:    teampage.NewLocator(teamConfigs, crawl.NewCollector(matcher, 0), logger),
		Aggregator: profile.NewAggregator(matcher, profile.DefaultMaxProfiles, logger),
		Dismisser:  overlay.New(matcher, overlay.WithLogger(logger)),
		Classifier: classifier,
		Extractor:  buildExtractor(cfg.Extractor, logger),
		Browser: browser.Config{
			RemoteURL:      cfg.Browser.Remote,
			NavTimeout:     cfg.Browser.NavTimeout,
			ActionTimeout:  cfg.Browser.ActionTimeout,
			ViewportWidth:  cfg.Browser.ViewportWidth,
			ViewportHeight: cfg.Browser.ViewportHeight,
			Logger:         logger,
		},
	}

	orch := pipeline.New(pipeline.Config{
		BatchSize:         cfg.Run.BatchSize,
		ConcurrentBatches: cfg.Run.ConcurrentBatches,
		SiteTimeout:       cfg.Run.SiteTimeout,
		SiteRetries:       cfg.Run.SiteRetries,
		RetryDelay:        cfg.Run.RetryDelay,
		BlockThreshold:    cfg.Run.BlockThreshold,
		ConservativeDelay: cfg.Run.ConservativeDelay,
		Logger:            logger,
	}, deps)

	if cfg.Listen != "" {
		api := statusapi.NewServer(cfg.Listen, orch.Progress(), db, logger)
		go func() {
			if err := api.Start(ctx); err != nil {
				logger.Warn("vetmap: status api stopped", "error", err)
			}
		}()
	}

	if err := orch.Run(ctx, clinics); err != nil {
		return err
	}

	counts, err := db.StatusCounts(context.Background())
	if err == nil {
		logger.Info("vetmap: run complete",
			"yes", counts[classify.StatusYes],
			"no", counts[classify.StatusNo],
			"uncertain", counts[classify.StatusUncertain])
	}
	return nil
}

func loadTeamConfigs(path string) (keywords.TeamConfigs, error) {
	if path == "" {
		return keywords.DefaultTeamConfigs(), nil
	}
	return keywords.LoadTeamConfigs(path)
}

// buildClassifier loads the keyword tables, falling back to the built-in
// defaults for any table without a configured CSV.
func buildClassifier(m *fuzzy.Matcher, kc keywordConfig) (*classify.Classifier, error) {
	animals := keywords.DefaultAnimalKeywords()
	clinic := keywords.DefaultClinicKeywords()
	nonClinic := keywords.DefaultNonClinicKeywords()

	var err error
	if kc.AnimalsCSV != "" {
		if animals, err = keywords.LoadCategoryCSV(kc.AnimalsCSV); err != nil {
			return nil, err
		}
	}
	if kc.ClinicCSV != "" {
		if clinic, err = keywords.LoadBinaryCSV(kc.ClinicCSV); err != nil {
			return nil, err
		}
	}
	if kc.NonClinicCSV != "" {
		if nonClinic, err = keywords.LoadBinaryCSV(kc.NonClinicCSV); err != nil {
			return nil, err
		}
	}
	return classify.New(m, clinic, nonClinic, animals), nil
}

// buildExtractor returns nil when person extraction is disabled or no API
// key is present.
func buildExtractor(ec extractorConfig, logger *slog.Logger) people.Extractor {
	if !ec.Enabled {
		return nil
	}
	key := os.Getenv(ec.APIKeyEnv)
	if key == "" {
		logger.Warn("vetmap: extractor enabled but key env is empty", "env", ec.APIKeyEnv)
		return nil
	}
	return people.NewClient(people.ClientConfig{
		BaseURL: ec.BaseURL,
		APIKey:  key,
		Model:   ec.Model,
		Timeout: ec.Timeout,
		Logger:  logger,
	})
}
