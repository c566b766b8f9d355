package chisei

import "errors"

// Error kinds surfaced by the package.  All returned errors wrap exactly
// one of these sentinels, so callers can classify them with errors.Is.
var (
	// ErrModelIO reports that a model file could not be opened for
	// reading or writing.
	ErrModelIO = errors.New("chisei: cannot open model file")

	// ErrModelFormat reports a model stream that is not a valid .chisei
	// model: bad magic, a short read, or a shape header inconsistent
	// with the rest of the file.
	ErrModelFormat = errors.New("chisei: invalid model format")

	// ErrInputShape reports an input or target vector whose length does
	// not match the network's input or output width.
	ErrInputShape = errors.New("chisei: input shape mismatch")
)
