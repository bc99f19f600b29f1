package handler

import (
	"net/http"
)

type maintenanceResult struct {
	Assets          int    `json:"assets"`
	AssetError      string `json:"assetError,omitempty"`
	ExpiredSessions int    `json:"expiredSessions"`
}

// HandleMaintenanceTrigger is the timer trigger: it reloads the asset directory and drops idle
// sessions. An asset refresh failure is reported but does not fail the run.
func (d *Dependencies) HandleMaintenanceTrigger(w http.ResponseWriter, r *http.Request) {
	log := d.log(r)
	log.Info().Msg("starting maintenance run")

	var res maintenanceResult
	if d.Assets != nil {
		if err := d.Assets.Refresh(r.Context()); err != nil {
			log.Error().Err(err).Msg("failed to refresh assets")
			res.AssetError = err.Error()
		}
		res.Assets = d.Assets.Len()
	}
	if d.Sessions != nil {
		res.ExpiredSessions = d.Sessions.Cleanup()
	}

	log.Info().Int("assets", res.Assets).Int("expired_sessions", res.ExpiredSessions).Msg("maintenance run complete")
	WriteJSON(w, http.StatusOK, res)
}
