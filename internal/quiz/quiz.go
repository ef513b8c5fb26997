// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package quiz turns a free-text instruction into a quiz by asking a remote
text-generation model and salvaging the JSON it answers with.

The model is an external collaborator: its output is untrusted text that
usually, but not always, contains one JSON document.
*/
package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidOutput means the model answered but no usable JSON was found.
	ErrInvalidOutput = errors.New("quiz: model output is not valid JSON")

	// ErrModelUnavailable means the model could not be reached or failed.
	ErrModelUnavailable = errors.New("quiz: model unavailable")
)

// Quiz is the normalized result returned to clients.
type Quiz struct {
	Questions []json.RawMessage `json:"quiz"`
}

// Generator produces a quiz for an instruction.
type Generator interface {
	Generate(ctx context.Context, instruction string) (*Quiz, error)
}

// assistantMarker separates the echoed prompt from the answer in chat-formatted output.
const assistantMarker = "<|im_start|>assistant"

/*
ExtractQuiz pulls the JSON document out of raw model output and normalizes
its shape.

# Extraction

The text after the last assistant marker is cut from the first opening
bracket to the last matching closing bracket. Objects ('{') and top-level
arrays ('[') are both accepted, whichever opens first.

# Accepted Shapes

  - [q1, q2, ...]
  - {"quiz": [q1, ...]}
  - {"quiz": {"questions": [q1, ...]}}
  - {"questions": [q1, ...]}

Any other valid JSON yields an empty quiz.
*/
func ExtractQuiz(output string) (*Quiz, error) {
	if at := strings.LastIndex(output, assistantMarker); at != -1 {
		output = output[at+len(assistantMarker):]
	}

	document, ok := cutJSON(output)
	if !ok {
		return nil, ErrInvalidOutput
	}

	var decoded any
	if err := json.Unmarshal([]byte(document), &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}

	return &Quiz{Questions: questionsOf(decoded)}, nil
}

func cutJSON(text string) (string, bool) {
	objectStart := strings.IndexByte(text, '{')
	arrayStart := strings.IndexByte(text, '[')

	start, closing := objectStart, byte('}')
	if arrayStart != -1 && (objectStart == -1 || arrayStart < objectStart) {
		start, closing = arrayStart, ']'
	}
	if start == -1 {
		return "", false
	}

	end := strings.LastIndexByte(text, closing)
	if end < start {
		return "", false
	}

	return text[start : end+1], true
}

func questionsOf(decoded any) []json.RawMessage {
	switch value := decoded.(type) {
	case []any:
		return rawItems(value)

	case map[string]any:
		switch quiz := value["quiz"].(type) {
		case []any:
			return rawItems(quiz)
		case map[string]any:
			if questions, ok := quiz["questions"].([]any); ok {
				return rawItems(questions)
			}
		}
		if questions, ok := value["questions"].([]any); ok {
			return rawItems(questions)
		}
	}

	return []json.RawMessage{}
}

func rawItems(items []any) []json.RawMessage {
	raw := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		encoded, err := json.Marshal(item)
		if err != nil {
			continue
		}
		raw = append(raw, encoded)
	}
	return raw
}
