package runner

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewArrivalControllerSelectsModel(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		poisson bool
	}{
		{name: "default is uniform", opts: Options{RatePerSecond: 10}},
		{name: "explicit uniform", opts: Options{ArrivalModel: ArrivalModelUniform}},
		{name: "poisson", opts: Options{ArrivalModel: ArrivalModelPoisson, RatePerSecond: 50}, poisson: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			opts.normalize()
			ctrl := newArrivalController(opts)
			_, isPoisson := ctrl.(*poissonArrival)
			if isPoisson != tt.poisson {
				t.Fatalf("controller = %T, poisson want %v", ctrl, tt.poisson)
			}
		})
	}
}

func TestPoissonArrivalDelayScalesWithRate(t *testing.T) {
	tests := []struct {
		rate   float64
		sample float64
		want   time.Duration
	}{
		{rate: 200, sample: 1, want: 5 * time.Millisecond},
		{rate: 100, sample: 0.5, want: 5 * time.Millisecond},
		{rate: 0, sample: 1, want: 0},
		{rate: -3, sample: 1, want: 0},
	}

	for _, tt := range tests {
		ctrl := &poissonArrival{sample: func() float64 { return tt.sample }}
		ctrl.SetRate(tt.rate)
		if got := ctrl.nextDelay(); got != tt.want {
			t.Errorf("rate %v sample %v: delay = %s, want %s", tt.rate, tt.sample, got, tt.want)
		}
	}
}

func TestPoissonArrivalSeededSamplerIsDeterministic(t *testing.T) {
	opts := Options{ArrivalModel: ArrivalModelPoisson, RatePerSecond: 1000, RandomSeed: 7}
	a := newArrivalController(opts).(*poissonArrival)
	b := newArrivalController(opts).(*poissonArrival)
	for i := 0; i < 5; i++ {
		if da, db := a.nextDelay(), b.nextDelay(); da != db {
			t.Fatalf("draw %d differs: %s vs %s", i, da, db)
		}
	}
}

func TestArrivalWaitHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	slow := &poissonArrival{sample: func() float64 { return 1 }}
	slow.SetRate(0.000001)
	if err := slow.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("poisson Wait() = %v, want context.Canceled", err)
	}

	var unpaced *uniformArrival
	if err := unpaced.Wait(ctx); err != nil {
		t.Fatalf("nil uniform Wait() = %v, want nil", err)
	}
}
