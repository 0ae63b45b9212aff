package model

import "time"

// Known feature flag keys
const (
	FlagKillSwitch    = "kill_switch"
	FlagTelephony     = "telephony"
	FlagPayments      = "payments"
	FlagNotifications = "notifications"
	FlagAnalytics     = "analytics"
)

// KnownFlag reports whether key is one of known feature flags
func KnownFlag(key string) bool {
	switch key {
	case FlagKillSwitch, FlagTelephony, FlagPayments, FlagNotifications, FlagAnalytics:
		return true
	default:
		return false
	}
}

// FlagRecord is remote feature flag row
type FlagRecord struct {
	Key               string  `json:"key" bson:"key" yaml:"key"`
	Enabled           bool    `json:"enabled" bson:"enabled" yaml:"enabled"`
	RolloutPercentage *int    `json:"rollout_percentage,omitempty" bson:"rollout_percentage,omitempty" yaml:"rollout_percentage,omitempty"`
	SafeModeMessage   *string `json:"safe_mode_message,omitempty" bson:"safe_mode_message,omitempty" yaml:"safe_mode_message,omitempty"`
}

// FlagRecordsSnapshot is flag records together with time they were read from flag store
type FlagRecordsSnapshot struct {
	Records []*FlagRecord `msgpack:"records"`
	ReadAt  time.Time     `msgpack:"read_at"`
}

// FlagSource tells where current flag values came from
type FlagSource string

const (
	// FlagSourceDefault means hardcoded defaults, nothing fetched yet
	FlagSourceDefault FlagSource = "default"
	// FlagSourceRemote means values were just evaluated from remote records
	FlagSourceRemote FlagSource = "remote"
	// FlagSourceCache means values were served from cache
	FlagSourceCache FlagSource = "cache"
	// FlagSourceError means remote fetch failed and defaults are served
	FlagSourceError FlagSource = "error"
)

// FlagState is evaluated feature flags
type FlagState struct {
	KillSwitch      bool       `json:"killSwitch"`
	Telephony       bool       `json:"telephony"`
	Payments        bool       `json:"payments"`
	Notifications   bool       `json:"notifications"`
	Analytics       bool       `json:"analytics"`
	SafeModeMessage *string    `json:"safeModeMessage"`
	Source          FlagSource `json:"source"`
	FetchedAt       *time.Time `json:"fetchedAt"`
}

// DefaultFlagState returns hardcoded defaults. Core features stay enabled, so
// an outage of flag storage doesn't lock the app.
func DefaultFlagState() FlagState {
	return FlagState{
		KillSwitch:    false,
		Telephony:     true,
		Payments:      true,
		Notifications: true,
		Analytics:     true,
		Source:        FlagSourceDefault,
	}
}

// Allows reports whether feature with provided key is enabled
func (s FlagState) Allows(key string) bool {
	switch key {
	case FlagKillSwitch:
		return s.KillSwitch
	case FlagTelephony:
		return s.Telephony
	case FlagPayments:
		return s.Payments
	case FlagNotifications:
		return s.Notifications
	case FlagAnalytics:
		return s.Analytics
	default:
		return false
	}
}

// Copy returns state copy with own pointers
func (s FlagState) Copy() FlagState {
	c := s
	c.SafeModeMessage = copyPtr(s.SafeModeMessage)
	c.FetchedAt = copyPtr(s.FetchedAt)
	return c
}
