package ingest

import (
	"context"
	"fmt"
	"log"

	"github.com/japaniel/shelfscan/pkg/listing"
)

// Loaded is one page read and extracted by a worker.
type Loaded struct {
	Index      int
	Path       string
	Page       *listing.Page
	Extraction listing.Extraction
	Err        error
}

// PageLoader reads and extracts pages concurrently and hands them back in
// input order.
type PageLoader struct {
	Schema  *listing.Schema
	Workers int
	// Logger receives warnings about page metadata. nil means no logging.
	Logger *log.Logger

	// PoolFactory allows tests to inject custom worker pool implementations.
	PoolFactory func(workers, queue int) Pool
}

// NewPageLoader creates a PageLoader with 4 workers.
func NewPageLoader(schema *listing.Schema) *PageLoader {
	return &PageLoader{Schema: schema, Workers: 4}
}

func (l *PageLoader) load(index int, path string) Loaded {
	res := Loaded{Index: index, Path: path}
	page, err := listing.LoadPage(path)
	if err != nil {
		res.Err = err
		return res
	}
	if page.MetaErr != nil && l.Logger != nil {
		l.Logger.Printf("Warning: no metadata for %s: %v", page.Name, page.MetaErr)
	}
	ex, err := l.Schema.Extract(page.Doc)
	if err != nil {
		res.Err = fmt.Errorf("extract %s: %w", path, err)
		return res
	}
	res.Page = page
	res.Extraction = ex
	return res
}

// Each loads every path and calls fn with the results strictly in the order
// of paths. The first load or fn error cancels outstanding work and is
// returned.
func (l *PageLoader) Each(ctx context.Context, paths []string, fn func(Loaded) error) error {
	if l.Schema == nil {
		return fmt.Errorf("page loader has no schema")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(paths) == 0 {
		return nil
	}
	workers := l.Workers
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var pool Pool
	if l.PoolFactory != nil {
		pool = l.PoolFactory(workers, workers*2)
	} else {
		pool = NewWorkerPool(workers, workers*2)
	}
	pool.Start(ctx)

	results := make(chan Loaded, workers*2)
	go func() {
		defer close(results)
		for i, path := range paths {
			i, path := i, path // per-iteration copies (go directive is pre-1.22)
			job := func(ctx context.Context) error {
				res := l.load(i, path)
				select {
				case results <- res:
					return res.Err
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if err := pool.SubmitCtx(ctx, job); err != nil {
				select {
				case results <- Loaded{Index: i, Path: path, Err: fmt.Errorf("submit %s: %w", path, err)}:
				case <-ctx.Done():
				}
				break
			}
		}
		// Job errors already arrive through results.
		_ = pool.Close()
	}()

	pending := make(map[int]Loaded)
	next := 0
	var firstErr error
	for res := range results {
		if firstErr != nil {
			continue // drain so workers can exit
		}
		if res.Err != nil {
			firstErr = res.Err
			cancel()
			continue
		}
		pending[res.Index] = res
		for {
			item, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			if err := fn(item); err != nil {
				firstErr = err
				cancel()
				break
			}
			next++
		}
	}
	if firstErr != nil {
		return firstErr
	}
	if next < len(paths) {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fmt.Errorf("loaded %d of %d pages", next, len(paths))
	}
	return nil
}
