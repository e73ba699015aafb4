package runtime

import (
	"context"
	"errors"
	"sync"
)

// Merge fans several sources into one. Events keep their per-source
// order. The first fatal error from any child ends the merged source;
// it ends gracefully once every child has closed.
func Merge(sources ...Source) Source {
	if len(sources) == 1 {
		return sources[0]
	}
	return &merged{
		sources: sources,
		out:     make(chan *Event),
		errs:    make(chan error, len(sources)),
		allDone: make(chan struct{}),
	}
}

type merged struct {
	sources []Source
	once    sync.Once
	out     chan *Event
	errs    chan error
	allDone chan struct{}
}

func (m *merged) NextEvent(ctx context.Context) (*Event, error) {
	// The first caller's ctx drives the reader goroutines; the loop
	// passes the same ctx for its whole lifetime.
	m.once.Do(func() { m.startReaders(ctx) })

	select {
	case ev := <-m.out:
		return ev, nil
	case err := <-m.errs:
		return nil, err
	case <-m.allDone:
		return nil, ErrSourceClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *merged) startReaders(ctx context.Context) {
	var wg sync.WaitGroup
	for _, src := range m.sources {
		wg.Add(1)
		go func(src Source) {
			defer wg.Done()
			for {
				ev, err := src.NextEvent(ctx)
				if err != nil {
					if errors.Is(err, ErrSourceClosed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
						return
					}
					m.errs <- err
					return
				}
				if ev == nil {
					continue
				}
				select {
				case m.out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}(src)
	}
	go func() {
		wg.Wait()
		close(m.allDone)
	}()
}
