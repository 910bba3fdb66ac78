package async

import (
	"strings"
	"sync"
)

// Errors aggregates the failures of concurrently run tasks.
type Errors struct {
	E []error
}

var _ error = (*Errors)(nil)

func (e Errors) Wrapped() error {
	if len(e.E) == 0 {
		return nil
	}
	return e
}

func (e Errors) Error() string {
	var sb strings.Builder
	l := len(e.E)
	for i, err := range e.E {
		sb.WriteString(err.Error())
		if i < l-1 {
			sb.WriteString(", ")
		}
	}
	return sb.String()
}

// Map calls f on every element of src, running at most concurrencyLimit calls
// at once; a limit <= 0 runs all of them at once. Results keep the order of
// src. Every error is collected and returned as Errors, next to the results
// of the calls that succeeded.
func Map[T any, D any](src []T, concurrencyLimit int, f func(T) (D, error)) ([]D, error) {
	if len(src) == 0 {
		return []D{}, nil
	}

	if concurrencyLimit <= 0 || concurrencyLimit > len(src) {
		concurrencyLimit = len(src)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		errs    Errors
		limiter = make(chan struct{}, concurrencyLimit)
		results = make([]D, len(src))
		ok      = make([]bool, len(src))
	)

	wg.Add(len(src))
	for i, element := range src {
		limiter <- struct{}{}
		go func(i int, el T) {
			defer func() {
				<-limiter
				wg.Done()
			}()

			r, err := f(el)
			if err != nil {
				mu.Lock()
				errs.E = append(errs.E, err)
				mu.Unlock()
				return
			}
			results[i] = r
			ok[i] = true
		}(i, element)
	}
	wg.Wait()

	if len(errs.E) == 0 {
		return results, nil
	}
	succeeded := make([]D, 0, len(src)-len(errs.E))
	for i, r := range results {
		if ok[i] {
			succeeded = append(succeeded, r)
		}
	}
	return succeeded, errs
}

func FlatMap[T any, D any](src []T, concurrencyLimit int, f func(T) ([]D, error)) ([]D, error) {
	r, err := Map(src, concurrencyLimit, f)
	if err != nil {
		return nil, err
	}

	flattened := make([]D, 0, len(r))
	for _, v := range r {
		flattened = append(flattened, v...)
	}

	return flattened, nil
}

// Errable runs fn in its own goroutine and delivers its result on the
// returned channel.
func Errable(fn func() error) <-chan error {
	ch := make(chan error, 1)
	go func() {
		ch <- fn()
		close(ch)
	}()
	return ch
}

// WaitAll waits for every channel and returns all errors received, or nil.
func WaitAll(chans ...<-chan error) error {
	var errs Errors
	for _, ch := range chans {
		if err, open := <-ch; open && err != nil {
			errs.E = append(errs.E, err)
		}
	}
	return errs.Wrapped()
}
