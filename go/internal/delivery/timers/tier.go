package timers

// Tier is the presentation urgency of a countdown.
type Tier string

const (
	TierSafe     Tier = "safe"
	TierWarning  Tier = "warning"
	TierCritical Tier = "critical"
)

// TierFor maps the remaining/total ratio onto a tier:
// above one half is safe, above one quarter is warning, the rest critical.
func TierFor(remaining, total int) Tier {
	if total <= 0 || remaining <= 0 {
		return TierCritical
	}
	p := float64(remaining) / float64(total)
	switch {
	case p > 0.5:
		return TierSafe
	case p > 0.25:
		return TierWarning
	default:
		return TierCritical
	}
}
