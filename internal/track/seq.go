package track

import (
	"context"
	"iter"
	"time"
)

// Seq wraps a function returning a lazy sequence. Every item the producer
// hands out is one observation covering the producer's time for that item.
// The consumer's time between items is not recorded, and neither is the time
// after the last item. Stopping early records nothing further.
func Seq[V any](t *Tracker, fn func() iter.Seq[V]) func() iter.Seq[V] {
	p := t.bind(fn)
	return func() iter.Seq[V] {
		return func(yield func(V) bool) {
			timeItems(p.items(context.Background()), fn, yield)
		}
	}
}

// Seq1 wraps a one-argument function returning a lazy sequence.
func Seq1[A, V any](t *Tracker, fn func(A) iter.Seq[V]) func(A) iter.Seq[V] {
	p := t.bind(fn)
	return func(a A) iter.Seq[V] {
		return func(yield func(V) bool) {
			timeItems(p.items(context.Background()), func() iter.Seq[V] { return fn(a) }, yield)
		}
	}
}

// SeqCtx wraps a context-aware function returning a lazy sequence. Item spans
// are children of the span carried by ctx.
func SeqCtx[V any](t *Tracker, fn func(context.Context) iter.Seq[V]) func(context.Context) iter.Seq[V] {
	p := t.bind(fn)
	return func(ctx context.Context) iter.Seq[V] {
		return func(yield func(V) bool) {
			timeItems(p.items(ctx), func() iter.Seq[V] { return fn(ctx) }, yield)
		}
	}
}

func timeItems[V any](it *itemTimer, produce func() iter.Seq[V], yield func(V) bool) {
	defer func() {
		if v := recover(); v != nil {
			it.abort(v)
			panic(v)
		}
	}()
	produce()(func(v V) bool {
		it.handOff(nil)
		if !yield(v) {
			return false
		}
		it.resume()
		return true
	})
}

// Seq2 wraps a function returning a lazy pair sequence. When the second
// element is a non-nil error the item is still recorded like any other and
// passed through unchanged.
func Seq2[K, V any](t *Tracker, fn func() iter.Seq2[K, V]) func() iter.Seq2[K, V] {
	p := t.bind(fn)
	return func() iter.Seq2[K, V] {
		return func(yield func(K, V) bool) {
			it := p.items(context.Background())
			defer func() {
				if v := recover(); v != nil {
					it.abort(v)
					panic(v)
				}
			}()
			fn()(func(k K, v V) bool {
				err, _ := any(v).(error)
				it.handOff(err)
				if !yield(k, v) {
					return false
				}
				it.resume()
				return true
			})
		}
	}
}

// itemTimer measures the producer's share of one iteration. It is owned by a
// single iteration and needs no locking.
type itemTimer struct {
	p     *callSite
	ctx   context.Context
	start time.Time
	item  int
	// producing is false while the consumer holds an item.
	producing bool
}

func (p *callSite) items(ctx context.Context) *itemTimer {
	return &itemTimer{p: p, ctx: ctx, start: p.t.now(), producing: true}
}

// handOff records the item about to be yielded.
func (it *itemTimer) handOff(err error) {
	it.p.observe(it.ctx, it.start, it.p.t.now(), it.item, err)
	it.item++
	it.producing = false
}

// resume restarts the timer when the consumer returns control.
func (it *itemTimer) resume() {
	it.producing = true
	it.start = it.p.t.now()
}

// abort records the partial item when the producer itself panicked. A panic
// raised by the consumer is not the producer's latency.
func (it *itemTimer) abort(v any) {
	if it.producing {
		it.p.observe(it.ctx, it.start, it.p.t.now(), it.item, panicError(v))
	}
}
