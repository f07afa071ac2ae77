package smoke

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"github.com/philippgille/chromem-go"
)

// embeddingDim is deliberately small: the vectors only need to be stable and
// distinct, not semantically meaningful.
const embeddingDim = 256

// localEmbedding returns a deterministic chromem.EmbeddingFunc built on token
// hashing. It keeps the embedded exercise fully offline: the same text always
// maps to the same unit vector, and overlapping vocabulary yields nearby
// vectors, which is enough for a similarity query to rank documents.
func localEmbedding() chromem.EmbeddingFunc {
	return func(_ context.Context, text string) ([]float32, error) {
		vec := make([]float32, embeddingDim)
		for _, token := range strings.Fields(strings.ToLower(text)) {
			h := fnv.New32a()
			_, _ = h.Write([]byte(token))
			vec[h.Sum32()%embeddingDim]++
		}

		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		if norm == 0 {
			// Empty input still needs a valid unit vector.
			vec[0] = 1
			return vec, nil
		}

		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
		return vec, nil
	}
}
