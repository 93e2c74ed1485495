package store

// Hooks are lightweight callbacks for high-signal store events.
// Implementations MUST be cheap and non-blocking; the store calls them on
// the read and write paths.
type Hooks interface {
	// An entry was deleted on read.
	// reason ∈ {"corrupt", "schema_mismatch", "value_decode"}
	SelfHeal(storageKey, reason string)

	// Provider returned ok=false on Set (backpressure/eviction).
	ProviderSetRejected(storageKey string)

	// Deleting an undecodable entry failed; it will be retried on next read.
	SelfHealDeleteError(storageKey string, err error)
}

// NopHooks is the default no-op.
type NopHooks struct{}

func (NopHooks) SelfHeal(string, string)           {}
func (NopHooks) ProviderSetRejected(string)        {}
func (NopHooks) SelfHealDeleteError(string, error) {}
