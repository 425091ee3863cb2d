package convert

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinex/staxchange/model"
)

func file(path string, size int) model.SourceFile {
	return model.SourceFile{Path: path, Content: strings.Repeat("x", size)}
}

func flatten(batches []model.Batch) []model.SourceFile {
	var out []model.SourceFile
	for _, b := range batches {
		out = append(out, b...)
	}
	return out
}

func TestMakeBatchesTwoSmallFiles(t *testing.T) {
	files := []model.SourceFile{file("a.py", 10), file("b.js", 10)}

	batches := MakeBatches(files, 80_000)

	require.Len(t, batches, 1)
	assert.Equal(t, []string{"a.py", "b.js"}, batches[0].Paths())
}

func TestMakeBatchesEmpty(t *testing.T) {
	assert.Empty(t, MakeBatches(nil, 100))
}

func TestMakeBatchesDefaultLimit(t *testing.T) {
	files := []model.SourceFile{file("a", DefaultBatchSizeLimit), file("b", 1)}

	batches := MakeBatches(files, 0)

	require.Len(t, batches, 2)
	assert.Equal(t, DefaultBatchSizeLimit, batches[0].Size())
}

func TestMakeBatchesExactFit(t *testing.T) {
	files := []model.SourceFile{file("a", 40), file("b", 60), file("c", 1)}

	batches := MakeBatches(files, 100)

	require.Len(t, batches, 2)
	assert.Equal(t, []string{"a", "b"}, batches[0].Paths())
	assert.Equal(t, []string{"c"}, batches[1].Paths())
}

func TestMakeBatchesOversizedFileStandsAlone(t *testing.T) {
	files := []model.SourceFile{file("a", 30), file("big", 500), file("b", 30), file("c", 30)}

	batches := MakeBatches(files, 100)

	require.Len(t, batches, 3)
	assert.Equal(t, []string{"a"}, batches[0].Paths())
	assert.Equal(t, []string{"big"}, batches[1].Paths())
	assert.Equal(t, []string{"b", "c"}, batches[2].Paths())
}

func TestMakeBatchesOversizedFirst(t *testing.T) {
	files := []model.SourceFile{file("big", 500), file("a", 1)}

	batches := MakeBatches(files, 100)

	require.Len(t, batches, 2)
	assert.Equal(t, []string{"big"}, batches[0].Paths())
	assert.Equal(t, []string{"a"}, batches[1].Paths())
}

func TestMakeBatchesProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		limit := 1 + rng.Intn(200)
		n := rng.Intn(30)
		files := make([]model.SourceFile, n)
		for i := range files {
			files[i] = file(fmt.Sprintf("f%d", i), rng.Intn(2*limit))
		}

		batches := MakeBatches(files, limit)

		// Concatenation identity: nothing dropped, duplicated or reordered.
		if diff := cmp.Diff(files, flatten(batches)); n > 0 && diff != "" {
			t.Fatalf("round %d: concatenation mismatch (-want +got):\n%s", round, diff)
		}

		for bi, b := range batches {
			require.NotEmpty(t, b, "round %d batch %d", round, bi)
			if b.Size() > limit {
				// Only a single oversized file may exceed the limit.
				require.Len(t, b, 1, "round %d batch %d over limit", round, bi)
				require.Greater(t, b[0].Size(), limit)
			}
		}
	}
}

func TestMakeBatchesNoBatchOverLimitWhenFilesFit(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	limit := 1000
	var files []model.SourceFile
	for i := 0; i < 100; i++ {
		files = append(files, file(fmt.Sprintf("f%d", i), rng.Intn(limit+1)))
	}

	for _, b := range MakeBatches(files, limit) {
		assert.LessOrEqual(t, b.Size(), limit)
	}
}
