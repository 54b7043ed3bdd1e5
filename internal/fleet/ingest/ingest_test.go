package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/autopeer-io/evfleet/internal/fleet/model"
	"github.com/autopeer-io/evfleet/internal/fleet/rules"
	"github.com/autopeer-io/evfleet/internal/fleet/store"
)

type fakeEval struct {
	alerts []model.Alert
	seen   int
}

func (f *fakeEval) Evaluate(batch []model.Vehicle) []model.Alert {
	f.seen++
	return f.alerts
}

func TestConsumeOrder(t *testing.T) {
	s := store.New()
	eval := &fakeEval{alerts: []model.Alert{{ID: "a1"}, {ID: "a2"}, {ID: "a1"}}}
	a := New(s, eval)

	a.Consume([]model.Vehicle{{ID: "EV-1"}, {ID: "EV-2"}})

	snap := s.Snapshot()
	if snap.SelectedVehicleID != "EV-1" {
		t.Errorf("selection = %q, want EV-1", snap.SelectedVehicleID)
	}

	var ids []string
	for _, al := range snap.Alerts {
		ids = append(ids, al.ID)
	}
	// pushed in order; the repeated a1 moves back to the head
	if diff := cmp.Diff([]string{"a1", "a2"}, ids); diff != "" {
		t.Errorf("alert ids mismatch (-want +got):\n%s", diff)
	}
}

func TestConsumeEvaluatesWhileOffline(t *testing.T) {
	s := store.New()
	eval := &fakeEval{alerts: []model.Alert{{ID: "a1"}}}
	a := New(s, eval)

	a.Consume([]model.Vehicle{{ID: "EV-1"}})
	s.SetOnline(false)
	a.Consume([]model.Vehicle{{ID: "EV-9"}})

	if eval.seen != 2 {
		t.Errorf("evaluated %d batches, want 2", eval.seen)
	}
	snap := s.Snapshot()
	if got := snap.Vehicles[0].ID; got != "EV-1" {
		t.Errorf("offline batch applied: %s", got)
	}
	if len(snap.Alerts) != 1 {
		t.Errorf("got %d alerts, want 1", len(snap.Alerts))
	}
}

func TestConsumeWithRuleEngine(t *testing.T) {
	s := store.New()
	engine := rules.NewEngine(rules.WithClock(clocktesting.NewFakePassiveClock(time.UnixMilli(42))))
	a := New(s, engine)

	a.Consume([]model.Vehicle{{
		ID: "EV-1", Name: "EV - 1", Battery: 9, Temperature: 30,
		TireFL: 33, TireFR: 33, TireRL: 33, TireRR: 33,
	}})

	alerts := s.Snapshot().Alerts
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(alerts))
	}
	if alerts[0].ID != "42-EV-1-battery" || alerts[0].Severity != model.SeverityCritical {
		t.Errorf("unexpected alert %+v", alerts[0])
	}
}

func TestRun(t *testing.T) {
	s := store.New()
	a := New(s, nil)

	ch := make(chan []model.Vehicle)
	done := make(chan error, 1)
	go func() { done <- a.Run(context.Background(), ch) }()

	ch <- []model.Vehicle{{ID: "EV-1"}}
	ch <- []model.Vehicle{{ID: "EV-1"}, {ID: "EV-2"}}
	close(ch)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after channel close")
	}
	if got := len(s.Snapshot().Vehicles); got != 2 {
		t.Errorf("got %d vehicles, want 2", got)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	a := New(store.New(), nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx, make(chan []model.Vehicle)) }()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
