package cli

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/shift/web-spec/internal/backend"
	"github.com/shift/web-spec/internal/config"
	"github.com/shift/web-spec/internal/engine"
	"github.com/shift/web-spec/internal/gherkin"
	"github.com/shift/web-spec/internal/log"
	"github.com/shift/web-spec/internal/registry"
	"github.com/shift/web-spec/internal/result"
	"github.com/shift/web-spec/internal/webhook"
)

// setup loads and validates config and initialises logging. The
// returned cleanup closes the log file.
func setup() (*config.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, exitErrf(ExitGeneral, "loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, exitErrf(ExitGeneral, "invalid config: %v", err)
	}

	logFile := openLogFile()
	log.Init(cfg.LogLevel, logFile)
	cleanup := func() {
		if logFile != nil {
			logFile.Close()
		}
	}
	return cfg, cleanup, nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func openLogFile() *os.File {
	dir := ".webspec"
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(dir, "webspec.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil
	}
	return f
}

// parseFeature reads and parses one feature file, mapping the failure
// modes onto their exit codes.
func parseFeature(path string) (*gherkin.Feature, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, exitErrf(ExitNotFound, "feature file not found: %s", path)
		}
		return nil, exitErrf(ExitGeneral, "reading feature file: %v", err)
	}
	feat, err := gherkin.Parse(path, src)
	if err != nil {
		return nil, exitErrf(ExitValidation, "%s: %v", path, err)
	}
	return feat, nil
}

// dialBackend connects to the automation backend named in the config.
func dialBackend(ctx context.Context, cfg *config.Config) (backend.Backend, error) {
	b, err := backend.DialCDP(ctx, cfg.Backend.URL)
	if err != nil {
		return nil, exitErrf(ExitGeneral, "connecting to backend at %s: %v", cfg.Backend.URL, err)
	}
	return b, nil
}

func newEngine(b backend.Backend, verbose bool) *engine.Engine {
	e := engine.New(registry.Default(), b)
	e.Display = engine.NewDisplay(verbose)
	return e
}

// afterRun delivers webhooks and prints alerts. Neither can fail the
// run that produced the result.
func afterRun(ctx context.Context, cfg *config.Config, res *result.FeatureResult) {
	if n := cfg.Notifier(); n != nil {
		if err := n.Notify(ctx, webhook.EventFor(res), res); err != nil {
			log.Warn("webhook delivery failed", "err", err)
		}
		if err := n.Notify(ctx, webhook.EventCompletion, res); err != nil {
			log.Warn("webhook delivery failed", "err", err)
		}
	}
	for _, alert := range webhook.Evaluate(res, cfg.Alerts) {
		log.Warn("performance alert", "alert", alert.String())
	}
}
