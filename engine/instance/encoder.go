// Package instance sizes and fills the RGBA texture that carries per-instance data.
package instance

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-drawbench/common"
	"golang.org/x/exp/rand"
)

// BytesPerInstance is the payload reserved for each instance: four RGBA texels.
const BytesPerInstance = 16

// defaultChunkSize is the number of bytes each fill task writes.
const defaultChunkSize = 1 << 20

// TextureSide returns S = ceil(sqrt(16*n)), the side of the square instance texture.
// The result is exact for every n representable as int; a float sqrt is corrected by one step
// in either direction.
//
// Parameters:
//   - n: the instance count (n >= 0)
//
// Returns:
//   - int: the texture side length in texels
func TextureSide(n int) int {
	if n <= 0 {
		return 0
	}
	area := int64(n) * BytesPerInstance
	s := int64(math.Ceil(math.Sqrt(float64(area))))
	for s*s < area {
		s++
	}
	for s > 0 && (s-1)*(s-1) >= area {
		s--
	}
	return int(s)
}

// encoder is the implementation of the Encoder interface.
type encoder struct {
	count     int
	side      int
	seed      uint64
	workers   int
	chunkSize int

	mu         *sync.Mutex
	generation uint64
	pool       worker.DynamicWorkerPool
}

// Encoder produces the instance texture for a fixed instance count.
type Encoder interface {
	// Count returns the instance count N the encoder was built for.
	Count() int

	// Side returns the texture side S.
	Side() int

	// ByteSize returns S*S*4, the size of every buffer the encoder produces.
	ByteSize() int

	// Encode allocates a new S×S RGBA buffer and fills every byte uniformly from [0, 255].
	//
	// Returns:
	//   - common.TextureStagingData: the filled buffer with its dimensions
	Encode() common.TextureStagingData

	// Refill overwrites every byte of dst with fresh random content. dst must be ByteSize() long.
	//
	// Parameters:
	//   - dst: the buffer to overwrite
	//
	// Returns:
	//   - error: an error if dst has the wrong length
	Refill(dst []byte) error

	// Close stops the worker pool. Later fills run on the calling goroutine.
	Close()
}

var _ Encoder = &encoder{}

// NewEncoder creates an Encoder for n instances.
//
// Parameters:
//   - n: the instance count (must be > 0)
//   - options: variadic list of EncoderBuilderOption functions to configure the Encoder
//
// Returns:
//   - Encoder: the configured encoder
//   - error: an error if n is not positive
func NewEncoder(n int, options ...EncoderBuilderOption) (Encoder, error) {
	if n <= 0 {
		return nil, fmt.Errorf("instance count must be positive, got %d", n)
	}
	e := &encoder{
		count:     n,
		side:      TextureSide(n),
		workers:   max(runtime.NumCPU()-1, 1),
		chunkSize: defaultChunkSize,
		mu:        &sync.Mutex{},
	}
	for _, opt := range options {
		opt(e)
	}
	if e.seed == 0 {
		e.seed = uint64(time.Now().UnixNano())
	}
	if e.workers > 1 {
		e.pool = worker.NewDynamicWorkerPool(e.workers, 256, 1*time.Second)
	}
	return e, nil
}

func (e *encoder) Count() int { return e.count }

func (e *encoder) Side() int { return e.side }

func (e *encoder) ByteSize() int { return e.side * e.side * 4 }

func (e *encoder) Encode() common.TextureStagingData {
	pixels := make([]byte, e.ByteSize())
	e.fill(pixels)
	return common.TextureStagingData{
		Pixels: pixels,
		Width:  uint32(e.side),
		Height: uint32(e.side),
	}
}

func (e *encoder) Refill(dst []byte) error {
	if len(dst) != e.ByteSize() {
		return fmt.Errorf("refill buffer is %d bytes, want %d", len(dst), e.ByteSize())
	}
	e.fill(dst)
	return nil
}

func (e *encoder) Close() {
	e.mu.Lock()
	pool := e.pool
	e.pool = nil
	e.mu.Unlock()
	if pool != nil {
		pool.Stop()
	}
}

// fill writes random bytes into buf in independent chunks. Each chunk reads its own PCG stream
// derived from (seed, generation, chunk index); output does not depend on scheduling order.
func (e *encoder) fill(buf []byte) {
	e.mu.Lock()
	gen := e.generation
	e.generation++
	pool := e.pool
	e.mu.Unlock()

	chunks := (len(buf) + e.chunkSize - 1) / e.chunkSize
	if pool == nil || chunks <= 1 {
		for c := 0; c < chunks; c++ {
			e.fillChunk(buf, gen, c)
		}
		return
	}

	var wg sync.WaitGroup
	for c := 0; c < chunks; c++ {
		wg.Add(1)
		idx := c
		pool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				e.fillChunk(buf, gen, idx)
				return nil, nil
			},
		})
	}
	wg.Wait()
}

func (e *encoder) fillChunk(buf []byte, gen uint64, chunk int) {
	lo := chunk * e.chunkSize
	hi := min(lo+e.chunkSize, len(buf))
	r := rand.New(rand.NewSource(streamSeed(e.seed, gen, uint64(chunk))))
	_, _ = r.Read(buf[lo:hi])
}

// streamSeed mixes the three inputs with splitmix64 so neighbouring chunks get unrelated streams.
func streamSeed(seed, gen, chunk uint64) uint64 {
	x := seed ^ (gen * 0x9e3779b97f4a7c15) ^ (chunk * 0xbf58476d1ce4e5b9)
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
