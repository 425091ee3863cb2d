package convert

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/richinex/staxchange/llm"
	"github.com/richinex/staxchange/model"
)

const systemInstruction = "You are a senior software engineer that converts codebases between stacks. " +
	"Convert each file to the target stack preserving functionality and folder structure. " +
	"Return ONLY strict JSON with an array named files, each item {path, content}. Target: "

// buildMessages returns the system instruction carrying the target followed
// by one user message per file, in batch order.
func buildMessages(batch model.Batch, target model.TargetStack) []llm.ChatMessage {
	messages := make([]llm.ChatMessage, 0, len(batch)+1)
	messages = append(messages, llm.SystemMessage(systemInstruction+targetJSON(target)))
	for _, f := range batch {
		messages = append(messages, llm.UserMessage(fileMessage(f)))
	}
	return messages
}

func fileMessage(f model.SourceFile) string {
	return fmt.Sprintf("FILE PATH: %s\nCONTENT:\n\n%s", f.Path, f.Content)
}

// targetJSON renders the target compactly. An absent target is null; a
// target that is not valid JSON is sent as a JSON string.
func targetJSON(target model.TargetStack) string {
	trimmed := bytes.TrimSpace(target)
	if len(trimmed) == 0 {
		return "null"
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		quoted, _ := json.Marshal(string(trimmed))
		return string(quoted)
	}
	return buf.String()
}
