// internal/generator/options.go
//
// Retry budget for Generate. Zero values fall back to the defaults.

package generator

// Options configures generation retries.
type Options struct {
	MaxAttempts int // fill/shuffle/scramble/check rounds before giving up
	MinScramble int // fewest transpositions per round
	MaxScramble int // most transpositions per round
	ForcedSwaps int // extra single swaps after MaxAttempts is spent
}

// DefaultOptions returns the standard retry budget.
func DefaultOptions() *Options {
	return &Options{
		MaxAttempts: DefaultMaxAttempts,
		MinScramble: DefaultMinScramble,
		MaxScramble: DefaultMaxScramble,
		ForcedSwaps: DefaultForcedSwaps,
	}
}

func (o *Options) normalize() {
	if o.MaxAttempts < 1 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.MinScramble < 1 {
		o.MinScramble = DefaultMinScramble
	}
	if o.MaxScramble < o.MinScramble {
		o.MaxScramble = o.MinScramble
	}
	if o.ForcedSwaps < 0 {
		o.ForcedSwaps = 0
	}
}
