package driven

// ConfigStore holds user configuration as flat dot-notation keys
// ("embedding.model", "retrieval.k"). Typed getters return the zero value
// for missing keys and for values of another type.
type ConfigStore interface {
	// Get returns the raw value and whether the key is set.
	Get(key string) (any, bool)

	GetString(key string) string

	// GetInt truncates floating point values.
	GetInt(key string) int

	// GetFloat accepts integer values.
	GetFloat(key string) float64

	GetBool(key string) bool

	// Set stores a value and persists the whole configuration.
	Set(key string, value any) error

	// Save persists the current configuration.
	Save() error

	// Load replaces the in-memory configuration with the persisted one.
	// A missing file yields an empty configuration.
	Load() error

	// Path returns where the configuration is persisted.
	Path() string
}
