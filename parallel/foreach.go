// package parallel contains the parallel ForEach barrier the training backends fan work out with.
package parallel

import "context"

import "github.com/sourcegraph/conc/pool"

// ForEach executes a for loop with a limited number of concurrent goroutines.
// Each goroutine processes one integer, from 0 to length. ForEach returns only
// after every body has returned, with the errors of all failed bodies combined.
func ForEach(ctx context.Context, length, limit int, body func(ctx context.Context, i int) error) error {
	if limit <= 0 {
		limit = 1 // Default to 1 if limit is zero or negative
	}
	if length <= 0 {
		return nil // No iterations to perform
	}
	if limit > length {
		limit = length
	}

	p := pool.New().WithMaxGoroutines(limit).WithContext(ctx)
	for i := 0; i < length; i++ {
		i := i // Capture loop variable
		p.Go(func(ctx context.Context) error {
			return body(ctx, i)
		})
	}
	return p.Wait()
}

// Split cuts length items into at most parts contiguous [begin, end) ranges of near equal size.
func Split(length, parts int) (ranges [][2]int) {
	if parts <= 0 {
		parts = 1
	}
	if parts > length {
		parts = length
	}
	for i := 0; i < parts; i++ {
		ranges = append(ranges, [2]int{i * length / parts, (i + 1) * length / parts})
	}
	return
}
