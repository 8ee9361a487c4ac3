package observe

import "errors"

// ErrEnvObservable reports that an observable could not be measured this
// cycle. Optimizers treat it as "skip this evaluation and move on", so it
// carries no payload beyond the wrapped cause.
var ErrEnvObservable = errors.New("environment observable unavailable")

// Narrow failure causes. They are wrapped by ErrEnvObservable (or absorbed by
// the soft-x-ray scalar fallback) and can be matched with errors.Is.
var (
	// ErrNoValidSamples means every reading in the window was invalid, or the
	// window itself was empty.
	ErrNoValidSamples = errors.New("no valid samples after filtering")

	// ErrShapeMismatch means the trimmed intensity and loss readouts disagree
	// in length, so they cannot be masked pairwise.
	ErrShapeMismatch = errors.New("intensity and loss series lengths differ")

	// ErrMissingChannel means a batched read came back without one of the
	// requested channels.
	ErrMissingChannel = errors.New("channel missing from batched read")
)
