package app

import (
	"log"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/tracker"
)

// OnActorAppeared asks the tracker to calibrate the new actor. Trackers
// that cannot calibrate report calibration themselves.
func (a *App) OnActorAppeared(id int) {
	log.Printf("Actor %d appeared", id)
	a.requestCalibration(id)
}

// OnActorLost drops the actor and its selection.
func (a *App) OnActorLost(id int) {
	if a.registry.RemoveActor(id) {
		log.Printf("Actor %d lost", id)
	}
}

// OnCalibrationStart is informational.
func (a *App) OnCalibrationStart(id int) {
	log.Printf("Calibration started for actor %d", id)
}

// OnCalibrationComplete registers a calibrated actor, or retries a failed
// calibration.
func (a *App) OnCalibrationComplete(id int, success bool) {
	if !success {
		log.Printf("Calibration failed for actor %d, retrying", id)
		a.requestCalibration(id)
		return
	}
	if a.registry.AddActor(id) {
		log.Printf("New actor: %d", id)
	}
}

func (a *App) requestCalibration(id int) {
	c, ok := a.tracker.(tracker.Calibrator)
	if !ok {
		return
	}
	if err := c.RequestCalibration(id); err != nil {
		log.Printf("Calibration request for actor %d failed: %v", id, err)
	}
}

// fireAction runs the plugin action bound to label in the background.
func (a *App) fireAction(actorID int, label gesture.Label) {
	if a.store == nil || a.plugins == nil {
		return
	}

	binding, err := a.store.Actions().GetByGesture(label)
	if err != nil {
		log.Printf("Failed to look up action for %s: %v", label.Name(), err)
		return
	}
	if binding == nil || !binding.Enabled {
		return
	}

	req := &plugin.Request{
		Action:    binding.ActionName,
		Gesture:   label.Name(),
		Actor:     actorID,
		Timestamp: a.timestamp,
		Config:    binding.Config,
	}
	ctx := a.actionCtx

	a.inflight.Add(1)
	go func() {
		defer a.inflight.Done()
		resp, err := a.plugins.Run(ctx, binding.PluginName, req)
		if err != nil {
			log.Printf("Action %s/%s failed: %v", binding.PluginName, binding.ActionName, err)
			return
		}
		if !resp.Success {
			log.Printf("Action %s/%s returned error: %s", binding.PluginName, binding.ActionName, resp.Error)
			return
		}
		log.Printf("Action %s/%s executed for actor %d", binding.PluginName, binding.ActionName, actorID)
	}()
}

// Wait blocks until every action fired so far has finished.
func (a *App) Wait() {
	a.inflight.Wait()
}
