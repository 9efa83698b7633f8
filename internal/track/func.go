package track

import "context"

// Func wraps a function without arguments.
func Func[R any](t *Tracker, fn func() (R, error)) func() (R, error) {
	p := t.bind(fn)
	return func() (R, error) {
		var r R
		err := p.run(context.Background(), func(context.Context) error {
			var err error
			r, err = fn()
			return err
		})
		return r, err
	}
}

// Func1 wraps a function of one argument.
func Func1[A, R any](t *Tracker, fn func(A) (R, error)) func(A) (R, error) {
	p := t.bind(fn)
	return func(a A) (R, error) {
		var r R
		err := p.run(context.Background(), func(context.Context) error {
			var err error
			r, err = fn(a)
			return err
		})
		return r, err
	}
}

// Func2 wraps a function of two arguments.
func Func2[A, B, R any](t *Tracker, fn func(A, B) (R, error)) func(A, B) (R, error) {
	p := t.bind(fn)
	return func(a A, b B) (R, error) {
		var r R
		err := p.run(context.Background(), func(context.Context) error {
			var err error
			r, err = fn(a, b)
			return err
		})
		return r, err
	}
}

// Call wraps a function that only reports an error.
func Call(t *Tracker, fn func() error) func() error {
	p := t.bind(fn)
	return func() error {
		return p.run(context.Background(), func(context.Context) error {
			return fn()
		})
	}
}

// FuncCtx wraps a context-aware function. The context handed to fn carries
// the call's span.
func FuncCtx[R any](t *Tracker, fn func(context.Context) (R, error)) func(context.Context) (R, error) {
	p := t.bind(fn)
	return func(ctx context.Context) (R, error) {
		var r R
		err := p.run(ctx, func(ctx context.Context) error {
			var err error
			r, err = fn(ctx)
			return err
		})
		return r, err
	}
}

// CallCtx wraps a context-aware function that only reports an error.
func CallCtx(t *Tracker, fn func(context.Context) error) func(context.Context) error {
	p := t.bind(fn)
	return func(ctx context.Context) error {
		return p.run(ctx, fn)
	}
}
