package constructorio

import "context"

// Async runs call on its own goroutine and delivers its single result on
// the returned channel, which is buffered so the goroutine never blocks.
//
//	ch := constructorio.Async(ctx, func(ctx context.Context) constructorio.Result[domain.SearchResponse] {
//		return client.Search(ctx, req)
//	})
//	res := <-ch
func Async[T any](ctx context.Context, call func(context.Context) Result[T]) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	go func() {
		ch <- call(ctx)
	}()
	return ch
}
