package simulator

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/autopeer-io/evfleet/internal/fleet/model"
)

func TestCreateFleet(t *testing.T) {
	g := NewGenerator(Config{Seed: 7})
	fleet := g.Fleet()

	if len(fleet) != DefaultVehicles {
		t.Fatalf("got %d vehicles, want %d", len(fleet), DefaultVehicles)
	}
	if fleet[0].ID != "EV-01" || fleet[9].ID != "EV-10" {
		t.Errorf("ids = %s..%s, want EV-01..EV-10", fleet[0].ID, fleet[9].ID)
	}
	if fleet[2].Name != "EV - 3" {
		t.Errorf("name = %q, want %q", fleet[2].Name, "EV - 3")
	}
	for _, v := range fleet {
		if v.Speed != 0 || v.RegenActive {
			t.Errorf("%s starts in motion", v.ID)
		}
		if v.Battery < 40 || v.Battery > 95 {
			t.Errorf("%s battery %v out of [40,95]", v.ID, v.Battery)
		}
		for _, p := range v.Tires() {
			if p < 32 || p > 36 {
				t.Errorf("%s tire %v out of [32,36]", v.ID, p)
			}
		}
	}
}

func TestTickKeepsBounds(t *testing.T) {
	g := NewGenerator(Config{Vehicles: 5, Seed: 3})

	for i := 0; i < 2000; i++ {
		for _, v := range g.Tick() {
			if v.Speed < 0 || v.Speed > 120 {
				t.Fatalf("tick %d: %s speed %v", i, v.ID, v.Speed)
			}
			if v.Battery < 0 || v.Battery > 100 {
				t.Fatalf("tick %d: %s battery %v", i, v.ID, v.Battery)
			}
			if v.Temperature < 15 || v.Temperature > 65 {
				t.Fatalf("tick %d: %s temperature %v", i, v.ID, v.Temperature)
			}
			if v.MotorEfficiency < 70 || v.MotorEfficiency > 99 {
				t.Fatalf("tick %d: %s efficiency %v", i, v.ID, v.MotorEfficiency)
			}
			for _, p := range v.Tires() {
				if p < 28 || p > 40 {
					t.Fatalf("tick %d: %s tire %v", i, v.ID, p)
				}
			}
			if v.Status != model.StatusMoving && (v.Speed != 0 || v.RegenActive) {
				t.Fatalf("tick %d: %s is %s with speed %v", i, v.ID, v.Status, v.Speed)
			}
		}
	}
}

func TestTickReturnsCopy(t *testing.T) {
	g := NewGenerator(Config{Vehicles: 2, Seed: 1})
	batch := g.Tick()
	batch[0].Name = "mutated"

	if g.Fleet()[0].Name == "mutated" {
		t.Error("tick batch aliases the generator fleet")
	}
}

func TestSeededRunsMatch(t *testing.T) {
	a := NewGenerator(Config{Vehicles: 4, Seed: 99})
	b := NewGenerator(Config{Vehicles: 4, Seed: 99})

	for i := 0; i < 10; i++ {
		if diff := cmp.Diff(a.Tick(), b.Tick()); diff != "" {
			t.Fatalf("tick %d differs (-a +b):\n%s", i, diff)
		}
	}
}

func TestNextDelayRange(t *testing.T) {
	g := NewGenerator(Config{MinInterval: time.Second, MaxInterval: 5 * time.Second, Seed: 5})
	for i := 0; i < 500; i++ {
		d := g.NextDelay()
		if d < time.Second || d >= 5*time.Second {
			t.Fatalf("delay %v out of [1s,5s)", d)
		}
	}

	fixed := NewGenerator(Config{MinInterval: 2 * time.Second, MaxInterval: time.Second, Seed: 5})
	if d := fixed.NextDelay(); d != 2*time.Second {
		t.Errorf("delay = %v, want 2s when max < min", d)
	}
}

func receive(t *testing.T, ch <-chan []model.Vehicle) []model.Vehicle {
	t.Helper()
	select {
	case b := <-ch:
		return b
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a batch")
		return nil
	}
}

func waitForTimer(t *testing.T, clk *clocktesting.FakeClock) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !clk.HasWaiters() {
		if time.Now().After(deadline) {
			t.Fatal("simulator never armed its timer")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRunTicksUntilCancelled(t *testing.T) {
	clk := clocktesting.NewFakeClock(time.Unix(0, 0))
	g := NewGenerator(Config{Vehicles: 3, MinInterval: time.Second, MaxInterval: 2 * time.Second, Seed: 1}, WithClock(clk))

	batches := make(chan []model.Vehicle, 16)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- g.Run(ctx, func(b []model.Vehicle) { batches <- b })
	}()

	if got := len(receive(t, batches)); got != 3 {
		t.Fatalf("first batch has %d vehicles, want 3", got)
	}

	for i := 0; i < 3; i++ {
		waitForTimer(t, clk)
		clk.Step(2 * time.Second)
		receive(t, batches)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	if clk.HasWaiters() {
		t.Error("timer still armed after teardown")
	}
	clk.Step(10 * time.Second)
	select {
	case <-batches:
		t.Error("batch delivered after teardown")
	default:
	}
}
