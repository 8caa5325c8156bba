package models

// RatingLabel describes an average rating in words.
func RatingLabel(avg float64) string {
	switch {
	case avg >= 4.5:
		return "Exceptional"
	case avg >= 3.5:
		return "Great"
	case avg >= 2.5:
		return "Average"
	case avg >= 1.5:
		return "Below Average"
	default:
		return "Poor"
	}
}

// VibeAxis names one of the three vibe sliders.
type VibeAxis string

const (
	VibeAxisSocial   VibeAxis = "social"
	VibeAxisWorkload VibeAxis = "workload"
	VibeAxisValue    VibeAxis = "value"
)

var vibeLabels = map[VibeAxis][5]string{
	VibeAxisSocial:   {"Strict", "Quiet", "Balanced", "Active", "Party"},
	VibeAxisWorkload: {"None", "Light", "Medium", "Heavy", "Intense"},
	VibeAxisValue:    {"None", "Low", "Decent", "Good", "High"},
}

// VibeLabel maps a 0..100 slider value to the nearest of five words for the
// axis. Out-of-range values are clamped. Unknown axes return "".
func VibeLabel(axis VibeAxis, v int) string {
	labels, ok := vibeLabels[axis]
	if !ok {
		return ""
	}
	v = max(MinVibe, min(MaxVibe, v))
	// 0-12 -> 0, 13-37 -> 1, 38-62 -> 2, 63-87 -> 3, 88-100 -> 4
	return labels[(v+12)/25]
}
