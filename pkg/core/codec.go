package core

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"
	"lukechampine.com/blake3"
)

var bufferPool = sync.Pool{New: func() interface{} { return new(bytes.Buffer) }}

// --- Compression ---

func Compress(src []byte) []byte {
	buf := bufferPool.Get().(*bytes.Buffer)
	defer bufferPool.Put(buf)
	buf.Reset()

	w := lz4.NewWriter(buf)
	w.Write(src)
	w.Close()

	// Return strictly sized slice
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out
}

func Decompress(src []byte) []byte {
	r := lz4.NewReader(bytes.NewReader(src))
	var out bytes.Buffer
	out.ReadFrom(r)
	return out.Bytes()
}

// --- Hashing ---

func Hash(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}

func HashPassword(password string) string {
	return Hash([]byte("starhold-pw-" + password))
}

// --- Deterministic Seeds ---

// SeedBytes exposes the raw digest for callers that parse individual bytes
// out of it (sector generation reads star class, richness etc. per byte).
func SeedBytes(worldSeed, key string) [32]byte {
	return blake3.Sum256([]byte(fmt.Sprintf("%s-%s", worldSeed, key)))
}
