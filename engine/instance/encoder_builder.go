package instance

// EncoderBuilderOption is a functional option applied to an encoder during construction via NewEncoder.
type EncoderBuilderOption func(*encoder)

// WithSeed makes the fill deterministic. Zero keeps the default time-based seed.
//
// Parameters:
//   - seed: the base seed for every random stream
//
// Returns:
//   - EncoderBuilderOption: a function that applies the seed option to an encoder
func WithSeed(seed uint64) EncoderBuilderOption {
	return func(e *encoder) {
		e.seed = seed
	}
}

// WithWorkers sets how many pool workers fill the buffer in parallel.
// Values below 2 fill on the calling goroutine. Zero keeps the default of NumCPU-1.
//
// Parameters:
//   - workers: the worker count
//
// Returns:
//   - EncoderBuilderOption: a function that applies the worker count option to an encoder
func WithWorkers(workers int) EncoderBuilderOption {
	return func(e *encoder) {
		if workers > 0 {
			e.workers = workers
		}
	}
}

// WithChunkSize sets the number of bytes each fill task writes.
//
// Parameters:
//   - size: bytes per chunk (must be > 0; other values are ignored)
//
// Returns:
//   - EncoderBuilderOption: a function that applies the chunk size option to an encoder
func WithChunkSize(size int) EncoderBuilderOption {
	return func(e *encoder) {
		if size > 0 {
			e.chunkSize = size
		}
	}
}
