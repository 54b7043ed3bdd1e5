package http

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/autopeer-io/evfleet/internal/fleet/model"
	"github.com/autopeer-io/evfleet/internal/fleet/projection"
	"github.com/autopeer-io/evfleet/internal/fleet/store"
	"github.com/autopeer-io/evfleet/pkg/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// View is the document pushed to stream clients: everything a dashboard
// renders, derived from one snapshot.
type View struct {
	Vehicles []model.Vehicle           `json:"vehicles"`
	Selected *model.Vehicle            `json:"selected"`
	Query    model.Query               `json:"query"`
	Alerts   listResponse[model.Alert] `json:"alerts"`
	Overview projection.Overview       `json:"overview"`
	Online   bool                      `json:"online"`
}

func BuildView(s store.State) View {
	v := View{
		Vehicles: projection.FilteredSortedVehicles(s),
		Query:    s.Query,
		Alerts:   alertList(s),
		Overview: projection.Summarize(s),
		Online:   s.Online,
	}
	if sel, ok := projection.SelectedVehicle(s); ok {
		v.Selected = &sel
	}
	return v
}

// handleStream upgrades to a WebSocket and pushes a View now and after every
// store change. A slow client only ever receives the latest state.
func (a *API) handleStream(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error.
		logger.Warn("WebSocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	defer conn.Close()

	updates := make(chan store.State, 1)
	unsubscribe := a.store.Subscribe(func(s store.State) {
		for {
			select {
			case updates <- s:
				return
			default:
			}
			// drop the stale state
			select {
			case <-updates:
			default:
			}
		}
	})
	defer unsubscribe()

	// Reading is only needed to process control frames and notice closure.
	closed := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	send := func(s store.State) error {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(BuildView(s))
	}

	logger.Debug("Stream client connected", "remote", r.RemoteAddr)
	defer logger.Debug("Stream client disconnected", "remote", r.RemoteAddr)

	if err := send(a.store.Snapshot()); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case <-a.closing:
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		case s := <-updates:
			if err := send(s); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
