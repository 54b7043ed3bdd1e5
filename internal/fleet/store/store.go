package store

import (
	"sync"

	"github.com/autopeer-io/evfleet/internal/fleet/model"
	"github.com/autopeer-io/evfleet/pkg/log"
)

// DefaultMaxAlerts is the number of alerts retained, newest first.
const DefaultMaxAlerts = 50

// State is a point-in-time copy of everything the store owns.
type State struct {
	Vehicles []model.Vehicle `json:"vehicles"`

	// SelectedVehicleID is empty when nothing is selected. It may reference a
	// vehicle that is not in Vehicles, which readers treat as no selection.
	SelectedVehicleID string `json:"selectedVehicleId"`

	Query  model.Query   `json:"query"`
	Alerts []model.Alert `json:"alerts"`
	Online bool          `json:"online"`
}

// Listener receives a snapshot after every accepted mutation.
type Listener func(State)

// Store is the authoritative in-memory fleet state. It is safe for concurrent
// use. Writers are serialized and listeners run outside the state lock, in
// registration order, on the goroutine that performed the mutation. Snapshots
// reach listeners in mutation order; a listener must not mutate the store.
type Store struct {
	mu    sync.RWMutex
	state State

	// seeded is set once the first batch has been accepted.
	seeded    bool
	maxAlerts int

	// notifyMu is taken before mu is released and held while listeners run,
	// so concurrent writers deliver their snapshots one at a time.
	notifyMu sync.Mutex

	subMu  sync.Mutex
	subs   []subscription
	nextID uint64

	log log.Logger
}

type subscription struct {
	id uint64
	fn Listener
}

// Option configures a Store.
type Option func(*Store)

// WithMaxAlerts overrides DefaultMaxAlerts. Values below 1 are ignored.
func WithMaxAlerts(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxAlerts = n
		}
	}
}

// WithOnline sets the initial online flag (default true).
func WithOnline(online bool) Option {
	return func(s *Store) { s.state.Online = online }
}

func WithLogger(l log.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New returns an empty store: no vehicles, no selection, no alerts, the
// default query and online=true.
func New(opts ...Option) *Store {
	s := &Store{
		state: State{
			Vehicles: []model.Vehicle{},
			Alerts:   []model.Alert{},
			Query:    model.Query{FilterStatus: model.FilterAll, SortBy: model.SortNone},
			Online:   true,
		},
		maxAlerts: DefaultMaxAlerts,
		log:       log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() State {
	st := s.state
	st.Vehicles = model.CloneVehicles(s.state.Vehicles)
	st.Alerts = model.CloneAlerts(s.state.Alerts)
	return st
}

// Subscribe registers fn and returns a function that removes it again.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// update applies fn under the write lock. fn reports whether it changed
// anything; listeners are only notified when it did.
func (s *Store) update(fn func(st *State) bool) bool {
	s.mu.Lock()
	if !fn(&s.state) {
		s.mu.Unlock()
		return false
	}
	snap := s.snapshotLocked()
	s.notifyMu.Lock()
	s.mu.Unlock()

	defer s.notifyMu.Unlock()
	s.notify(snap)
	return true
}

func (s *Store) notify(snap State) {
	s.subMu.Lock()
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(snap)
	}
}

// SetVehicles replaces the vehicle list with batch.
//
// While offline, every batch after the first accepted one is dropped so the
// last known data stays on screen. The first accepted batch selects its first
// vehicle; later batches keep the selection when it is still present and
// otherwise fall back to the first vehicle, or to no selection for an empty
// batch.
func (s *Store) SetVehicles(batch []model.Vehicle) bool {
	return s.update(func(st *State) bool {
		if !st.Online && s.seeded {
			s.log.Debug("Dropping telemetry batch while offline", "vehicles", len(batch))
			return false
		}

		first := !s.seeded
		s.seeded = true
		st.Vehicles = model.CloneVehicles(batch)

		if first {
			if len(batch) > 0 {
				st.SelectedVehicleID = batch[0].ID
			}
			return true
		}

		if !containsVehicle(batch, st.SelectedVehicleID) {
			st.SelectedVehicleID = ""
			if len(batch) > 0 {
				st.SelectedVehicleID = batch[0].ID
			}
		}
		return true
	})
}

func containsVehicle(batch []model.Vehicle, id string) bool {
	if id == "" {
		return false
	}
	for i := range batch {
		if batch[i].ID == id {
			return true
		}
	}
	return false
}

// SelectVehicle sets the selection without checking that the vehicle exists.
func (s *Store) SelectVehicle(id string) {
	s.update(func(st *State) bool {
		st.SelectedVehicleID = id
		return true
	})
}

func (s *Store) SetSearch(text string) {
	s.update(func(st *State) bool {
		st.Query.Search = text
		return true
	})
}

func (s *Store) SetFilterStatus(f model.StatusFilter) {
	s.update(func(st *State) bool {
		st.Query.FilterStatus = f
		return true
	})
}

func (s *Store) SetSortBy(k model.SortKey) {
	s.update(func(st *State) bool {
		st.Query.SortBy = k
		return true
	})
}

// PushAlert prepends a to the alert list, drops later entries that share an
// id with an earlier one and keeps at most maxAlerts entries. It is a no-op
// while offline. The return value reports whether the alert was accepted.
func (s *Store) PushAlert(a model.Alert) bool {
	return s.update(func(st *State) bool {
		if !st.Online {
			return false
		}

		next := make([]model.Alert, 0, min(len(st.Alerts)+1, s.maxAlerts))
		seen := make(map[string]struct{}, cap(next))
		for _, cur := range append([]model.Alert{a}, st.Alerts...) {
			if _, dup := seen[cur.ID]; dup {
				continue
			}
			seen[cur.ID] = struct{}{}
			next = append(next, cur)
			if len(next) >= s.maxAlerts {
				break
			}
		}
		st.Alerts = next
		return true
	})
}

// AckAlert removes the alert with the given id, if any.
func (s *Store) AckAlert(id string) {
	s.update(func(st *State) bool {
		for i := range st.Alerts {
			if st.Alerts[i].ID == id {
				next := make([]model.Alert, 0, len(st.Alerts)-1)
				next = append(next, st.Alerts[:i]...)
				st.Alerts = append(next, st.Alerts[i+1:]...)
				return true
			}
		}
		return false
	})
}

// AckAll clears every alert, online or not.
func (s *Store) AckAll() {
	s.update(func(st *State) bool {
		st.Alerts = []model.Alert{}
		return true
	})
}

// SetOnline sets the online flag. Going offline freezes the current vehicles
// and alerts; coming back online does not trigger any catch-up.
func (s *Store) SetOnline(online bool) {
	s.update(func(st *State) bool {
		if st.Online == online {
			return false
		}
		st.Online = online
		s.log.Info("Fleet store connectivity changed", "online", online)
		return true
	})
}

// Seeded reports whether a batch has ever been accepted.
func (s *Store) Seeded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seeded
}

// Online reports the current online flag.
func (s *Store) Online() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Online
}
