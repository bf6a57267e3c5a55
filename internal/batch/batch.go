package batch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shift/web-spec/internal/gherkin"
	"github.com/shift/web-spec/internal/log"
	"github.com/shift/web-spec/internal/result"
)

// RunFunc executes one parsed feature and returns its result document.
// The scheduler supplies a per-unit context that carries the unit timeout.
type RunFunc func(ctx context.Context, feat *gherkin.Feature) *result.FeatureResult

// UnitError records a unit that could not produce a result document,
// typically because its feature file failed to parse.
type UnitError struct {
	Path string `json:"path" yaml:"path"`
	Err  string `json:"error" yaml:"error"`
}

// Unit is the outcome of one feature file in a batch.
type Unit struct {
	File   string                `json:"file" yaml:"file"`
	Result *result.FeatureResult `json:"result,omitempty" yaml:"result,omitempty"`
	// Skipped marks units never dispatched because an earlier unit
	// failed and continue-on-failure was off.
	Skipped bool `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Summary aggregates all units of a batch run in discovery order.
type Summary struct {
	Units      []Unit      `json:"units" yaml:"units"`
	Errors     []UnitError `json:"errors,omitempty" yaml:"errors,omitempty"`
	Total      int         `json:"total" yaml:"total"`
	Passed     int         `json:"passed" yaml:"passed"`
	Failed     int         `json:"failed" yaml:"failed"`
	Skipped    int         `json:"skipped" yaml:"skipped"`
	DurationMS int64       `json:"duration_ms" yaml:"duration_ms"`
}

// Ok reports whether every dispatched unit passed and nothing errored.
func (s *Summary) Ok() bool {
	return s.Failed == 0 && s.Skipped == 0 && len(s.Errors) == 0
}

// Discover walks root recursively and returns every .feature file,
// sorted by path so batch ordering is stable across platforms.
func Discover(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".feature") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Scheduler runs a set of feature files, sequentially or over a bounded
// worker pool.
type Scheduler struct {
	// Workers is the pool size. Values below 2 mean sequential execution.
	Workers int
	// ContinueOnFailure keeps dispatching units after one fails. When
	// false, dispatch stops at the first failure; units already in
	// flight still run to completion.
	ContinueOnFailure bool
	// Timeout bounds each unit's execution. Zero means no limit.
	Timeout time.Duration
	// Run executes a parsed feature. Required.
	Run RunFunc
}

// Execute runs every file and aggregates a summary in the order the
// files were given.
func (s *Scheduler) Execute(ctx context.Context, files []string) *Summary {
	start := time.Now()
	var units []Unit
	var errs []UnitError
	if s.Workers > 1 {
		units, errs = s.parallel(ctx, files)
	} else {
		units, errs = s.sequential(ctx, files)
	}

	sum := &Summary{Units: units, Errors: errs, DurationMS: time.Since(start).Milliseconds()}
	for _, u := range units {
		sum.Total++
		switch {
		case u.Skipped:
			sum.Skipped++
		case u.Result != nil && u.Result.Status == result.StatusPassed:
			sum.Passed++
		default:
			sum.Failed++
		}
	}
	sum.Total += len(errs)
	return sum
}

func (s *Scheduler) sequential(ctx context.Context, files []string) ([]Unit, []UnitError) {
	var units []Unit
	var errs []UnitError
	stopped := false
	for _, file := range files {
		if stopped {
			units = append(units, Unit{File: file, Skipped: true})
			continue
		}
		u, uerr := s.runUnit(ctx, file)
		if uerr != nil {
			errs = append(errs, *uerr)
			if !s.ContinueOnFailure {
				stopped = true
			}
			continue
		}
		units = append(units, u)
		if u.Result.Status == result.StatusFailed && !s.ContinueOnFailure {
			stopped = true
		}
	}
	return units, errs
}

func (s *Scheduler) parallel(ctx context.Context, files []string) ([]Unit, []UnitError) {
	type task struct {
		index int
		file  string
	}
	type outcome struct {
		index int
		unit  Unit
		err   *UnitError
	}

	tasks := make(chan task)
	outcomes := make(chan outcome, len(files))
	var stopped atomic.Bool

	var wg sync.WaitGroup
	for w := 0; w < s.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				if stopped.Load() {
					outcomes <- outcome{index: t.index, unit: Unit{File: t.file, Skipped: true}}
					continue
				}
				u, uerr := s.runUnit(ctx, t.file)
				if uerr != nil {
					if !s.ContinueOnFailure {
						stopped.Store(true)
					}
					outcomes <- outcome{index: t.index, err: uerr}
					continue
				}
				if u.Result.Status == result.StatusFailed && !s.ContinueOnFailure {
					stopped.Store(true)
				}
				outcomes <- outcome{index: t.index, unit: u}
			}
		}()
	}

	for i, file := range files {
		tasks <- task{index: i, file: file}
	}
	close(tasks)
	wg.Wait()
	close(outcomes)

	// Collect after join, then restore discovery order.
	collected := make([]outcome, 0, len(files))
	for o := range outcomes {
		collected = append(collected, o)
	}
	sort.Slice(collected, func(i, j int) bool { return collected[i].index < collected[j].index })

	var units []Unit
	var errs []UnitError
	for _, o := range collected {
		if o.err != nil {
			errs = append(errs, *o.err)
			continue
		}
		units = append(units, o.unit)
	}
	return units, errs
}

func (s *Scheduler) runUnit(ctx context.Context, file string) (Unit, *UnitError) {
	src, err := os.ReadFile(file)
	if err != nil {
		return Unit{}, &UnitError{Path: file, Err: err.Error()}
	}
	feat, err := gherkin.Parse(file, src)
	if err != nil {
		return Unit{}, &UnitError{Path: file, Err: err.Error()}
	}

	runCtx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	log.Debug("batch unit start", "file", file)
	res := s.Run(runCtx, feat)
	log.Debug("batch unit done", "file", file, "status", res.Status)
	return Unit{File: file, Result: res}, nil
}
