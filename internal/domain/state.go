package domain

import "strings"

// ConnectionState is the station-mode connection state
type ConnectionState string

const (
	StateConnecting    ConnectionState = "CONNECTING"
	StateConnected     ConnectionState = "CONNECTED"
	StateSuspended     ConnectionState = "SUSPENDED"
	StateDisconnecting ConnectionState = "DISCONNECTING"
	StateDisconnected  ConnectionState = "DISCONNECTED"
	StateUnknown       ConnectionState = "UNKNOWN"
)

// ParseConnectionState converts a label to a ConnectionState, defaulting to StateUnknown
func ParseConnectionState(s string) ConnectionState {
	switch ConnectionState(strings.ToUpper(strings.TrimSpace(s))) {
	case StateConnecting:
		return StateConnecting
	case StateConnected:
		return StateConnected
	case StateSuspended:
		return StateSuspended
	case StateDisconnecting:
		return StateDisconnecting
	case StateDisconnected:
		return StateDisconnected
	default:
		return StateUnknown
	}
}

// APState classifies the hotspot (access point) state
type APState string

const (
	APStateDisabling APState = "disabling"
	APStateDisabled  APState = "disabled"
	APStateEnabling  APState = "enabling"
	APStateEnabled   APState = "enabled"
	APStateFailed    APState = "failed"
	APStateUnknown   APState = "unknown"
)

// Numeric hotspot state codes as reported by the platform
const (
	APCodeDisabling = 10
	APCodeDisabled  = 11
	APCodeEnabling  = 12
	APCodeEnabled   = 13
	APCodeFailed    = 14
)

// apCodeOffset is the distance between legacy (0..4) and current (10..14) codes
const apCodeOffset = 10

// CorrectAPCode maps legacy 0..4 hotspot codes onto the 10..14 range.
// Codes outside 0..4 are returned unchanged.
func CorrectAPCode(code int) int {
	if code >= 0 && code <= APCodeFailed-apCodeOffset {
		return code + apCodeOffset
	}
	return code
}

// ClassifyAPCode maps a numeric hotspot code to its classification.
// When legacy is set, codes are first passed through CorrectAPCode.
func ClassifyAPCode(code int, legacy bool) APState {
	if legacy {
		code = CorrectAPCode(code)
	}
	switch code {
	case APCodeDisabling:
		return APStateDisabling
	case APCodeDisabled:
		return APStateDisabled
	case APCodeEnabling:
		return APStateEnabling
	case APCodeEnabled:
		return APStateEnabled
	case APCodeFailed:
		return APStateFailed
	default:
		return APStateUnknown
	}
}

// Label returns the WIFI_AP_STATE_* text delivered to subscribers
func (s APState) Label() string {
	switch s {
	case APStateDisabling:
		return "WIFI_AP_STATE_DISABLING"
	case APStateDisabled:
		return "WIFI_AP_STATE_DISABLED"
	case APStateEnabling:
		return "WIFI_AP_STATE_ENABLING"
	case APStateEnabled:
		return "WIFI_AP_STATE_ENABLED"
	case APStateFailed:
		return "WIFI_AP_STATE_FAILED"
	default:
		return "WIFI_AP_STATE_UNKNOWN"
	}
}

// Code returns the numeric code for the classification, or -1 for unknown
func (s APState) Code() int {
	switch s {
	case APStateDisabling:
		return APCodeDisabling
	case APStateDisabled:
		return APCodeDisabled
	case APStateEnabling:
		return APCodeEnabling
	case APStateEnabled:
		return APCodeEnabled
	case APStateFailed:
		return APCodeFailed
	default:
		return -1
	}
}
