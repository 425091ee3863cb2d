// Package model provides domain types shared across packages.
package model

import "encoding/json"

// SourceFile is a single repository file, either as fetched from the origin
// repository or as returned by the conversion backend.
// Path is repo-relative and forward-slash separated.
type SourceFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Size returns the content length used for batch accounting.
func (f SourceFile) Size() int {
	return len(f.Content)
}

// Batch is an ordered group of files submitted to the backend in one request.
type Batch []SourceFile

// Size returns the accumulated content length of the batch.
func (b Batch) Size() int {
	total := 0
	for _, f := range b {
		total += f.Size()
	}
	return total
}

// Paths returns the file paths in batch order.
func (b Batch) Paths() []string {
	paths := make([]string, len(b))
	for i, f := range b {
		paths[i] = f.Path
	}
	return paths
}

// TargetStack is the caller-supplied description of the destination stack.
// It is forwarded to the backend verbatim and never inspected.
type TargetStack = json.RawMessage

// ConversionResult is the merged output of a pipeline run, in batch order
// and then file order within each batch. Duplicate paths are kept.
type ConversionResult []SourceFile
