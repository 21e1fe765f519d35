package workflow

// DefaultAggregateKey is the reserved key a batch's conjunction is tracked under.
const DefaultAggregateKey = "_all"

// Groups used by RunAction and LoadStates.
const (
	GroupActions = "actions"
	GroupStates  = "states"
)

// Config controls a Runner.
type Config struct {
	// Observer names a registered observer (see observability.GetObserver).
	Observer string `json:"observer,omitempty" yaml:"observer,omitempty"`

	// AggregateKey overrides DefaultAggregateKey.
	AggregateKey string `json:"aggregate_key,omitempty" yaml:"aggregate_key,omitempty" validate:"omitempty,excludesall=/"`

	// ClearFailedOnStartNil selects whether a new attempt clears the previous
	// error immediately (default) or leaves it until the attempt settles.
	ClearFailedOnStartNil *bool `json:"clear_failed_on_start,omitempty" yaml:"clear_failed_on_start,omitempty"`
}

// DefaultConfig returns the Runner defaults.
func DefaultConfig() Config {
	return Config{
		Observer:     "slog",
		AggregateKey: DefaultAggregateKey,
	}
}

// ClearFailedOnStart reports whether Start clears Failed, defaulting to true.
func (c *Config) ClearFailedOnStart() bool {
	if c.ClearFailedOnStartNil == nil {
		return true
	}
	return *c.ClearFailedOnStartNil
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Observer != "" {
		c.Observer = source.Observer
	}
	if source.AggregateKey != "" {
		c.AggregateKey = source.AggregateKey
	}
	if source.ClearFailedOnStartNil != nil {
		c.ClearFailedOnStartNil = source.ClearFailedOnStartNil
	}
}
