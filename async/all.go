package async

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// All waits for every future in futures. It resolves with each value under
// its key once all succeed, or rejects with the first failure wrapped in a
// *KeyError as soon as it is seen. The remaining futures keep running; All
// only stops waiting for them. An empty map resolves immediately.
func All[K comparable, T any](futures map[K]*Future[T]) *Future[map[K]T] {
	if len(futures) == 0 {
		return Resolved(map[K]T{})
	}

	return Go(context.Background(), func(ctx context.Context) (map[K]T, error) {
		g, gctx := errgroup.WithContext(ctx)

		var mu sync.Mutex
		values := make(map[K]T, len(futures))

		for key, f := range futures {
			g.Go(func() error {
				value, err := f.Await(gctx)
				if err != nil {
					// only the first error returned to the group is kept
					return &KeyError[K]{Key: key, Err: err}
				}
				mu.Lock()
				values[key] = value
				mu.Unlock()
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}
		return values, nil
	})
}
