package dashboard

import (
	"context"

	"github.com/autopeer-io/evfleet/internal/fleet/service"
	"github.com/autopeer-io/evfleet/internal/server"
	"github.com/autopeer-io/evfleet/pkg/log"
)

// Dashboard is the headless fleet dashboard: the core service plus the
// servers feeding and exposing it.
type Dashboard struct {
	service       *service.Service
	serverManager *server.Manager
}

// Run blocks until ctx is cancelled or a server fails.
func (d *Dashboard) Run(ctx context.Context) error {
	log.Info("Starting fleet dashboard",
		"online", d.service.Connectivity().Online(),
		"panelOrder", d.service.Prefs().PanelOrder(),
		"language", d.service.Prefs().Language(),
	)

	if err := d.serverManager.Start(ctx); err != nil {
		log.Error(err, "Fleet dashboard stopped with error")
		return err
	}

	log.Info("Fleet dashboard stopped")
	return nil
}
