package convert

import "github.com/richinex/staxchange/model"

// DefaultBatchSizeLimit is the accumulated content length per batch.
const DefaultBatchSizeLimit = 80_000

// MakeBatches partitions files into order-preserving batches in a single
// greedy pass. A file that would push the running batch over limit closes
// that batch first, unless the batch is empty. A file larger than limit is
// never split; it starts a batch of its own.
//
// limit <= 0 selects DefaultBatchSizeLimit.
func MakeBatches(files []model.SourceFile, limit int) []model.Batch {
	if limit <= 0 {
		limit = DefaultBatchSizeLimit
	}

	var batches []model.Batch
	var current model.Batch
	size := 0

	for _, f := range files {
		if len(current) > 0 && size+f.Size() > limit {
			batches = append(batches, current)
			current = nil
			size = 0
		}
		current = append(current, f)
		size += f.Size()
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}
