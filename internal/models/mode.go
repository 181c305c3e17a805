package models

// AggressiveMode mirrors the tracker's aggressive-mode configuration flag.
// The authoritative value lives on the upstream server; the gateway only
// holds a copy that is updated after a successful config request.
type AggressiveMode string

const (
	ModeIdle      AggressiveMode = "idle"
	ModeChasing   AggressiveMode = "chasing"
	ModeExplosion AggressiveMode = "explosion"
)

// Next returns the mode that follows in the idle -> chasing -> explosion cycle.
func (m AggressiveMode) Next() AggressiveMode {
	switch m {
	case ModeIdle:
		return ModeChasing
	case ModeChasing:
		return ModeExplosion
	case ModeExplosion:
		return ModeIdle
	default:
		return ModeIdle
	}
}

// IsValid reports whether m is one of the three known modes.
func (m AggressiveMode) IsValid() bool {
	switch m {
	case ModeIdle, ModeChasing, ModeExplosion:
		return true
	}
	return false
}

func (m AggressiveMode) String() string {
	return string(m)
}
