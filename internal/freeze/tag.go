package freeze

import "time"

// NewTag formats a filesystem-safe version tag for a freeze started at t,
// e.g. "v20260830_142501". Tags sort lexically in time order.
func NewTag(t time.Time) string {
	return "v" + t.Format("20060102_150405")
}
