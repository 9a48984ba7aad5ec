// Package constants holds identifiers shared across layers.
package constants

// Pub/Sub providers selectable through configuration.
const (
	PubSubProviderNone   = "none"
	PubSubProviderLocal  = "local"
	PubSubProviderGoogle = "google"
)

// Lock key prefixes for per-entity mutual exclusion.
const (
	LockKeyProfilePrefix    = "loyalty:profile:"
	LockKeyRedemptionPrefix = "loyalty:redemption:"
)

