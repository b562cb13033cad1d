package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"regexp"
	"strings"
)

// tokens are runs of digits, ASCII letters and Vietnamese letters.
var tokenRe = regexp.MustCompile(`[0-9A-Za-zÀ-ỹ]+`)
var spaceRe = regexp.MustCompile(`\s+`)

// HashProvider scatter-adds hashed tokens (weight 1.0) and character
// trigrams (weight 0.5) of the lowercased text into a fixed-size vector,
// then L2-normalizes. Deterministic, dependency-free.
type HashProvider struct {
	dim int
}

func NewHashProvider(dim int) *HashProvider {
	if dim <= 0 {
		dim = DefaultDim
	}
	return &HashProvider{dim: dim}
}

func (p *HashProvider) Name() string { return ProviderHash }
func (p *HashProvider) Dim() int     { return p.dim }

func (p *HashProvider) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, p.dim)
	s := strings.TrimSpace(text)
	if s == "" {
		return vec, nil
	}

	low := strings.ToLower(s)
	for _, tok := range tokenRe.FindAllString(low, -1) {
		p.accumulate(vec, []byte(tok), 1.0)
	}

	compact := strings.TrimSpace(spaceRe.ReplaceAllString(low, " "))
	runes := []rune(compact)
	if len(runes) >= 3 {
		for i := 0; i+3 <= len(runes); i++ {
			p.accumulate(vec, []byte(string(runes[i:i+3])), 0.5)
		}
	}

	normalize(vec)
	return vec, nil
}

// accumulate hashes the key once and spreads the digest over the vector in
// 4-byte little-endian words; the word's first byte's low bit picks the sign.
func (p *HashProvider) accumulate(vec []float32, key []byte, weight float32) {
	h := sha256.Sum256(key)
	for i := 0; i+4 <= len(h); i += 4 {
		idx := int(binary.LittleEndian.Uint32(h[i:i+4]) % uint32(p.dim))
		if h[i]&1 == 1 {
			vec[idx] -= weight
		} else {
			vec[idx] += weight
		}
	}
}

func normalize(vec []float32) {
	var sum float64
	for _, x := range vec {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	n := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= n
	}
}
