package calibrate

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"github.com/maypok86/otter/v2"

	"github.com/cwbudde/algo-shaper/accel"
	"github.com/cwbudde/algo-shaper/psd"
)

// DefaultCacheSize bounds the number of memoized responses. One response
// per axis per recording; the bound only matters for long-lived sessions
// over many recordings.
const DefaultCacheSize = 256

// Cache memoizes estimated frequency responses. Keys are content
// fingerprints, so a re-parsed copy of the same recording hits the cache
// while any change to the samples or the estimation options misses it.
//
// Cache is safe for concurrent use.
type Cache struct {
	cache *otter.Cache[string, psd.Response]
}

// NewCache returns a bounded in-memory response cache. A size of 0 selects
// DefaultCacheSize.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Cache{
		cache: otter.Must(&otter.Options[string, psd.Response]{
			MaximumSize: size,
		}),
	}
}

// Len reports the current number of cached responses.
func (c *Cache) Len() int {
	return c.cache.EstimatedSize()
}

func (c *Cache) get(key string) (psd.Response, bool) {
	return c.cache.GetIfPresent(key)
}

func (c *Cache) put(key string, resp psd.Response) {
	c.cache.Set(key, resp)
}

// fingerprint hashes the samples and estimation options into a cache key.
func fingerprint(log accel.AxisLog, opts psd.Options) string {
	h := sha256.New()
	h.Write([]byte(log.Axis))

	var buf [8]byte
	writeFloat := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}

	writeFloat(log.SampleRate)
	writeFloat(opts.BandMin)
	writeFloat(opts.BandMax)
	writeFloat(float64(opts.SegmentSize))
	for _, v := range log.Accel {
		writeFloat(v)
	}

	return hex.EncodeToString(h.Sum(nil))
}
