package track

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/torosent/calltrack/internal/metrics"
	"github.com/torosent/calltrack/internal/tracing"
)

// Logger receives diagnostics the tracker cannot return to a caller, such as
// unit conflicts detected while wrapping.
type Logger interface {
	Printf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Printf(string, ...any) {}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the diagnostics logger. A nil logger discards output.
func WithLogger(l Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithTracer emits one span per observation through tr.
func WithTracer(tr trace.Tracer) Option {
	return func(t *Tracker) {
		if tr != nil {
			t.tracer = tr
		}
	}
}

// WithClock replaces time.Now. Tests use it to make latencies deterministic.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// Tracker produces timed wrappers that record into a registry.
// A Tracker is immutable once built and safe for concurrent use.
type Tracker struct {
	reg    *metrics.Registry
	logger Logger
	tracer trace.Tracer
	now    func() time.Time
	unit   *metrics.Unit
	name   string
}

// New returns a Tracker recording into reg. A nil reg means metrics.Default.
func New(reg *metrics.Registry, opts ...Option) *Tracker {
	t := &Tracker{
		reg:    metrics.GetStats(reg),
		logger: noopLogger{},
		tracer: noop.NewTracerProvider().Tracer("calltrack"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// WithUnit returns a derived tracker whose wrappers display their latencies
// in u. The unit is validated here, before anything is wrapped.
func (t *Tracker) WithUnit(u metrics.Unit) (*Tracker, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	c := *t
	c.unit = &u
	return &c, nil
}

// Named returns a derived tracker that records under name instead of the
// wrapped function's resolved identity.
func (t *Tracker) Named(name string) *Tracker {
	c := *t
	c.name = strings.TrimSpace(name)
	return &c
}

// Registry returns the registry observations are recorded into.
func (t *Tracker) Registry() *metrics.Registry {
	return t.reg
}

// Identity returns the fully qualified name of fn, such as
// "main.(*Store).Get". Method values lose the compiler's "-fm" suffix.
// It returns "" when fn is not a non-nil function.
func Identity(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return ""
	}
	return strings.TrimSuffix(f.Name(), "-fm")
}

// callSite is the per-wrapper state resolved once at wrap time.
type callSite struct {
	t        *Tracker
	identity string
}

func (t *Tracker) bind(fn any) *callSite {
	identity := t.name
	if identity == "" {
		identity = Identity(fn)
	}
	if identity == "" {
		identity = "<unknown>"
	}
	if t.unit != nil {
		if err := t.reg.SetUnit(identity, *t.unit); err != nil {
			t.logger.Printf("unit for %s not changed: %v", identity, err)
		}
	}
	return &callSite{t: t, identity: identity}
}

// run times one invocation of fn. The observation is recorded whether fn
// returns or panics; a panic is re-raised with its original value.
func (p *callSite) run(ctx context.Context, fn func(context.Context) error) (err error) {
	start := p.t.now()
	ctx, span := tracing.StartCallSpan(ctx, p.t.tracer, p.identity, start)
	defer func() {
		end := p.t.now()
		p.t.reg.Observe(p.identity, int64(end.Sub(start)))
		if v := recover(); v != nil {
			tracing.EndSpan(span, end, panicError(v))
			panic(v)
		}
		tracing.EndSpan(span, end, err)
	}()
	return fn(ctx)
}

// observe records one completed interval, used by the sequence wrappers.
func (p *callSite) observe(ctx context.Context, start, end time.Time, item int, err error) {
	p.t.reg.Observe(p.identity, int64(end.Sub(start)))
	tracing.RecordSpan(ctx, p.t.tracer, p.identity, start, end, err, tracing.ItemAttr(item))
}

func panicError(v any) error {
	return fmt.Errorf("panic: %v", v)
}
