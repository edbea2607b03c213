// Package generator produces synthetic short words for exercising the
// engine's indices at scale, for the CLI's generator sub-mode.
//
// Grounded on the teacher's internal/utils.CreateRankList, which
// deterministically produces a sequence of synthetic rank values from a
// seeded counter rather than crypto/rand; this package follows the same
// "seeded, reproducible, no crypto/rand" approach, generalized from
// uint16 ranks to short lowercase words.
package generator

const alphabet = "abcdefghijklmnopqrstuvwxyz"

// Generator produces a deterministic stream of short pseudo-random words
// from an internal counter, so repeated runs with the same seed produce
// the same corpus — useful for reproducing a reported bug at scale.
type Generator struct {
	seed   uint64
	minLen int
	maxLen int
}

// New creates a generator. minLen and maxLen bound each produced word's
// length; maxLen < minLen is corrected to minLen == maxLen.
func New(seed uint64, minLen, maxLen int) *Generator {
	if minLen < 1 {
		minLen = 1
	}
	if maxLen < minLen {
		maxLen = minLen
	}
	return &Generator{seed: seed, minLen: minLen, maxLen: maxLen}
}

// next advances the internal splitmix64-style counter and returns the
// next pseudo-random value. Not cryptographically random; deterministic
// by design.
func (g *Generator) next() uint64 {
	g.seed += 0x9E3779B97F4A7C15
	z := g.seed
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Word produces one synthetic word.
func (g *Generator) Word() string {
	length := g.minLen
	if g.maxLen > g.minLen {
		length += int(g.next() % uint64(g.maxLen-g.minLen+1))
	}
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = alphabet[g.next()%uint64(len(alphabet))]
	}
	return string(buf)
}

// Words produces n synthetic words, deduplicated against each other (but
// not against any existing dictionary — callers insert through the
// engine's idempotent Add, so a repeat is harmless).
func (g *Generator) Words(n int) []string {
	seen := make(map[string]bool, n)
	out := make([]string, 0, n)
	for len(out) < n {
		w := g.Word()
		if seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}
