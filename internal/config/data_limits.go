// Package config provides request and result limits.
package config

const (
	// MaxMessageLength caps the free-text question in runes. Longer input is
	// rejected before any parser runs.
	MaxMessageLength = 500

	// DefaultMinEnrollment is the smallest section size considered for
	// ranking unless an exact course number is given.
	DefaultMinEnrollment = 8

	// DefaultRecencyYears is the width of the "recent" window in years.
	DefaultRecencyYears = 5

	// DefaultTopN is the ranking size when the caller gives none.
	DefaultTopN = 5

	// MaxTopN is the largest ranking a caller may request.
	MaxTopN = 50

	// DefaultLLMRateBurst is the per-client model-parse burst.
	DefaultLLMRateBurst = 30.0

	// DefaultLLMRateRefill is model-parse tokens restored per hour per client.
	DefaultLLMRateRefill = 20.0
)

// Default file and storage locations.
const (
	DefaultConfigFile    = "config/app.yaml"
	DefaultWarehousePath = "data/warehouse/grades.db"
	DefaultSnapshotKey   = "snapshots/grades.db.zst"
)
