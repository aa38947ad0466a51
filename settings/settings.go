/*
Package settings provides the launcher's key/value configuration.

PURPOSE:
  A narrow contract over user-tunable knobs consumed by the access gate
  and the task list. The core only needs reads plus a reset-to-defaults
  operation; the storage engine behind it is a collaborator detail
  (SQLite in production, the in-memory provider in tests).

KNOBS:
  hideCompletedTasks          hide done tasks from the list
  tunnelVisionMode            aggressive distraction hiding
  appDrawerDelaySeconds       gate countdown before the drawer unlocks (60)
  distractionAppsDelaySeconds extra delay for distraction-category apps (30)
  pointBlockThreshold         balance floor for the strict gate policy (50)
  blockBelowThreshold         enable the strict gate policy (false)
  warningsEnabled             surface low-balance warnings (true)
  reverseOnUncomplete         emit a compensating debit when a task is
                              un-completed (false, reference behavior)
*/
package settings

import "context"

// =============================================================================
// SETTINGS - User-tunable configuration
// =============================================================================

type Settings struct {
	HideCompletedTasks          bool    `json:"hideCompletedTasks"`
	TunnelVisionMode            bool    `json:"tunnelVisionMode"`
	AppDrawerDelaySeconds       float64 `json:"appDrawerDelaySeconds"`
	DistractionAppsDelaySeconds float64 `json:"distractionAppsDelaySeconds"`
	PointBlockThreshold         float64 `json:"pointBlockThreshold"`
	BlockBelowThreshold         bool    `json:"blockBelowThreshold"`
	WarningsEnabled             bool    `json:"warningsEnabled"`
	ReverseOnUncomplete         bool    `json:"reverseOnUncomplete"`
}

// Defaults returns the factory configuration.
func Defaults() Settings {
	return Settings{
		HideCompletedTasks:          false,
		TunnelVisionMode:            false,
		AppDrawerDelaySeconds:       60,
		DistractionAppsDelaySeconds: 30,
		PointBlockThreshold:         50,
		BlockBelowThreshold:         false,
		WarningsEnabled:             true,
		ReverseOnUncomplete:         false,
	}
}

// Provider is the read/write contract the core depends on.
type Provider interface {
	Get(ctx context.Context) (Settings, error)
	Update(ctx context.Context, s Settings) error

	// Reset restores Defaults().
	Reset(ctx context.Context) error
}
