package player

import "time"

// Config holds engine timing configuration.
type Config struct {
	// Remote poll cadence while the local device is not confirmed active.
	VisiblePollInterval time.Duration
	HiddenPollInterval  time.Duration

	// Post-command reconciliation budget.
	ReconcileSettleDelay time.Duration
	ReconcileJitterMin   time.Duration
	ReconcileJitterMax   time.Duration

	// Transfer wait-for-completion budget.
	TransferPollInterval time.Duration
	TransferPollAttempts int

	// Grace window after which local-push suppression is cleared when the
	// transfer target was the local device itself.
	SuppressionGrace time.Duration
}

// DefaultConfig returns the production timing defaults.
func DefaultConfig() Config {
	return Config{
		VisiblePollInterval:  1500 * time.Millisecond,
		HiddenPollInterval:   5 * time.Second,
		ReconcileSettleDelay: 200 * time.Millisecond,
		ReconcileJitterMin:   100 * time.Millisecond,
		ReconcileJitterMax:   300 * time.Millisecond,
		TransferPollInterval: 300 * time.Millisecond,
		TransferPollAttempts: 10,
		SuppressionGrace:     2 * time.Second,
	}
}
