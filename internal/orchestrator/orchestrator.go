// Package orchestrator implements §4.8: parses and validates a query,
// wires the walker to a worker pool of evaluator tasks, and returns the
// matched records sorted into the deterministic final order of §5
// ("emitted sequence is the lexicographic sort by canonical path").
package orchestrator

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rdump-dev/rdump/internal/errors"
	"github.com/rdump-dev/rdump/internal/eval"
	"github.com/rdump-dev/rdump/internal/fsctx"
	"github.com/rdump-dev/rdump/internal/predicate"
	"github.com/rdump-dev/rdump/internal/query"
	"github.com/rdump-dev/rdump/internal/walk"
)

// Options is the core entry contract of §6: "callers pass query string,
// root directory, include-hidden flag, ignore-disable flag, max-depth,
// worker-count."
type Options struct {
	Query            string
	Root             string
	IncludeHidden    bool
	NoIgnore         bool
	MaxDepth         int
	Workers          int
	GlobalIgnorePath string
}

// MatchedRange is one matched span within a file's content. No predicate
// reports spans, so Run always leaves Record.Ranges empty.
type MatchedRange struct {
	Start, End int
}

// Record is one emitted match (§6 "emitted record surface"): canonical
// path, size, modification time, and content loaded only if some
// predicate in the query needed it.
type Record struct {
	Path         string
	SizeBytes    int64
	ModifiedTime time.Time
	Content      []byte
	Ranges       []MatchedRange
}

// Run executes one full search: parse, validate, walk, evaluate, collect,
// sort. It returns a fatal error (QueryParseError, UnknownPredicateError,
// RootError, or an evaluator's InvalidValueError) for anything that stops
// the search before it can produce a partial result; per-file errors are
// absorbed by the evaluator and never reach here (§7).
func Run(ctx context.Context, opts Options, registry *predicate.Registry) ([]Record, error) {
	expr, err := query.Parse(opts.Query)
	if err != nil {
		return nil, err
	}

	for _, name := range query.PredicateNames(expr) {
		if _, ok := registry.Get(name); !ok {
			return nil, errors.NewUnknownPredicateError(name, registry.Suggest(name))
		}
	}

	if abs, err := filepath.Abs(opts.Root); err == nil {
		opts.Root = abs
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	paths := make(chan string, workers*4)
	records := make(chan Record, workers*4)

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		defer close(paths)
		return walk.Walk(gctx, walk.Options{
			Root:             opts.Root,
			IncludeHidden:    opts.IncludeHidden,
			NoIgnore:         opts.NoIgnore,
			MaxDepth:         opts.MaxDepth,
			GlobalIgnorePath: opts.GlobalIgnorePath,
		}, paths)
	})

	evaluator := eval.New(registry)
	rewritten := eval.Rewrite(expr, registry)

	for i := 0; i < workers; i++ {
		group.Go(func() error {
			return evaluateWorker(gctx, opts.Root, paths, records, rewritten, evaluator)
		})
	}

	done := make(chan struct{})
	var collected []Record
	go func() {
		for rec := range records {
			collected = append(collected, rec)
		}
		close(done)
	}()

	if err := group.Wait(); err != nil {
		close(records)
		<-done
		return nil, err
	}
	close(records)
	<-done

	sort.Slice(collected, func(i, j int) bool {
		return collected[i].Path < collected[j].Path
	})
	return collected, nil
}

// evaluateWorker pulls paths until the channel closes or the context is
// canceled, exiting after the current file finishes (§5 "cooperative at
// task boundaries").
func evaluateWorker(ctx context.Context, root string, paths <-chan string, records chan<- Record, expr query.Expr, evaluator *eval.Evaluator) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case path, ok := <-paths:
			if !ok {
				return nil
			}
			fctx := fsctx.New(path, root)
			matched, err := evaluator.Evaluate(fctx, expr)
			if err != nil {
				return err
			}
			if !matched {
				continue
			}
			rec, err := buildRecord(fctx)
			if err != nil {
				continue
			}
			select {
			case records <- rec:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// buildRecord materializes the emitted record surface for a matched file.
// A metadata failure here (the file vanished between discovery and
// evaluation) drops the match rather than failing the whole search (§7
// FileAccessError is non-fatal).
func buildRecord(fctx *fsctx.Context) (Record, error) {
	info, err := fctx.Metadata()
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		Path:         fctx.Path(),
		SizeBytes:    info.Size(),
		ModifiedTime: info.ModTime(),
	}
	if fctx.ContentLoaded() {
		if content, err := fctx.Content(); err == nil {
			rec.Content = content
		}
	}
	return rec, nil
}
