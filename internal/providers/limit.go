package providers

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Limit returns a Responder that lets at most n Respond calls through r at
// once, however many goroutines share it. A call waiting for a slot fails
// with the context's error when ctx is done.
func Limit(r Responder, n int) Responder {
	if n < 1 {
		n = 1
	}
	return &limited{Responder: r, sem: semaphore.NewWeighted(int64(n))}
}

type limited struct {
	Responder
	sem *semaphore.Weighted
}

func (l *limited) Respond(ctx context.Context, req Request) (Response, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return Response{}, err
	}
	defer l.sem.Release(1)
	return l.Responder.Respond(ctx, req)
}
