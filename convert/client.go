// Package convert rewrites repository files into a target stack.
//
// Information Hiding:
// - Greedy size-bounded batching
// - Prompt layout and the {"files":[{path, content}]} reply contract
// - Per-batch fallback to the original files
// - Optional bounded parallelism with ordered reassembly
package convert

import (
	"context"
	"encoding/json"
	"fmt"

	jsonutil "github.com/richinex/staxchange/internal/json"
	"github.com/richinex/staxchange/llm"
	"github.com/richinex/staxchange/model"
)

// Client converts one batch with exactly one backend call.
// It does not retry.
type Client struct {
	provider llm.Provider
	format   *llm.ResponseFormat
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithJSONMode asks the backend for a json_object reply when it supports one.
func WithJSONMode(enabled bool) ClientOption {
	return func(c *Client) {
		if enabled {
			c.format = llm.NewJSONObjectFormat()
		} else {
			c.format = nil
		}
	}
}

// NewClient creates a Client backed by provider.
func NewClient(provider llm.Provider, opts ...ClientOption) *Client {
	c := &Client{provider: provider}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ConvertBatch sends batch and target to the backend and returns the
// converted files in reply order.
//
// A reply without exactly one JSON object holding a files array of
// {path, content} strings fails with *model.ConversionFormatError.
// Backend failures are returned wrapped as-is. Token usage is reported
// whenever the backend answered, including replies that fail to parse.
func (c *Client) ConvertBatch(ctx context.Context, batch model.Batch, target model.TargetStack) ([]model.SourceFile, llm.TokenUsage, error) {
	resp, err := c.provider.ChatWithFormat(ctx, buildMessages(batch, target), c.format)
	if err != nil {
		return nil, llm.TokenUsage{}, fmt.Errorf("%s backend call: %w", c.provider.Name(), err)
	}
	var usage llm.TokenUsage
	if resp.Usage != nil {
		usage = *resp.Usage
	}
	files, err := parseReply(resp.Content)
	return files, usage, err
}

// replyFile mirrors one files[] item; pointers detect missing or null fields.
type replyFile struct {
	Path    *string `json:"path"`
	Content *string `json:"content"`
}

// parseReply extracts and validates the files envelope from backend text.
func parseReply(text string) ([]model.SourceFile, error) {
	envelope, err := jsonutil.ExtractJSONFromResponse[map[string]json.RawMessage](text)
	if err != nil {
		return nil, &model.ConversionFormatError{Reason: "no usable JSON object", Err: err}
	}

	filesRaw, ok := envelope["files"]
	if !ok {
		return nil, &model.ConversionFormatError{Reason: "missing files field"}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(filesRaw, &items); err != nil || items == nil {
		return nil, &model.ConversionFormatError{Reason: "files is not an array", Err: err}
	}

	files := make([]model.SourceFile, 0, len(items))
	for i, item := range items {
		var rf replyFile
		if err := json.Unmarshal(item, &rf); err != nil {
			return nil, &model.ConversionFormatError{Reason: fmt.Sprintf("files[%d] is not a {path, content} object", i), Err: err}
		}
		if rf.Path == nil || rf.Content == nil {
			return nil, &model.ConversionFormatError{Reason: fmt.Sprintf("files[%d] lacks a string path or content", i)}
		}
		files = append(files, model.SourceFile{Path: *rf.Path, Content: *rf.Content})
	}
	return files, nil
}
