// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package quiz

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// promptTemplate wraps the instruction in the chat format the model was tuned on.
const promptTemplate = "<|im_start|>user\nGenerate a JSON quiz based on this instruction: %s<|im_end|>"

// maxResponseBytes caps how much model output is read.
const maxResponseBytes = 1 << 20

// Parameters are the sampling settings sent with every request.
type Parameters struct {
	MaxNewTokens      int     `json:"max_new_tokens"`
	Temperature       float64 `json:"temperature"`
	TopP              float64 `json:"top_p"`
	RepetitionPenalty float64 `json:"repetition_penalty"`
	DoSample          bool    `json:"do_sample"`
}

// DefaultParameters mirrors the settings the quiz prompt was tuned with.
func DefaultParameters() Parameters {
	return Parameters{
		MaxNewTokens:      1024,
		Temperature:       0.3,
		TopP:              0.9,
		RepetitionPenalty: 1.2,
		DoSample:          true,
	}
}

type generateRequest struct {
	Inputs     string     `json:"inputs"`
	Parameters Parameters `json:"parameters"`
}

type generateResponse struct {
	GeneratedText string `json:"generated_text"`
}

// RemoteGenerator calls a text-generation server speaking the
// `POST /generate {inputs, parameters} -> {generated_text}` protocol.
type RemoteGenerator struct {
	endpoint   string
	httpClient *http.Client
	parameters Parameters
	retries    uint64
	retryDelay time.Duration
}

var _ Generator = (*RemoteGenerator)(nil)

// NewRemoteGenerator creates a generator for endpoint. timeout bounds each attempt.
func NewRemoteGenerator(endpoint string, timeout time.Duration) *RemoteGenerator {
	return &RemoteGenerator{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		parameters: DefaultParameters(),
		retries:    1,
		retryDelay: 500 * time.Millisecond,
	}
}

// Generate asks the model for a quiz. Transport failures and 5xx answers are
// retried once; anything the model says is returned as-is to ExtractQuiz.
func (generator *RemoteGenerator) Generate(ctx context.Context, instruction string) (*Quiz, error) {
	payload, err := json.Marshal(generateRequest{
		Inputs:     fmt.Sprintf(promptTemplate, instruction),
		Parameters: generator.parameters,
	})
	if err != nil {
		return nil, fmt.Errorf("quiz_encode_request: %w", err)
	}

	var output string
	backoff := retry.WithMaxRetries(generator.retries, retry.NewConstant(generator.retryDelay))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		text, err := generator.call(ctx, payload)
		if err != nil {
			return err
		}
		output = text
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ExtractQuiz(output)
}

func (generator *RemoteGenerator) call(ctx context.Context, payload []byte) (string, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, generator.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrModelUnavailable, err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	response, err := generator.httpClient.Do(request)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", retry.RetryableError(fmt.Errorf("%w: %v", ErrModelUnavailable, err))
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return "", retry.RetryableError(fmt.Errorf("%w: read body: %v", ErrModelUnavailable, err))
	}

	switch {
	case response.StatusCode >= http.StatusInternalServerError:
		return "", retry.RetryableError(fmt.Errorf("%w: status %d", ErrModelUnavailable, response.StatusCode))
	case response.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%w: status %d", ErrModelUnavailable, response.StatusCode)
	}

	// Servers answer with an object, or a one-element array of them.
	var single generateResponse
	if err := json.Unmarshal(body, &single); err == nil && single.GeneratedText != "" {
		return single.GeneratedText, nil
	}

	var batch []generateResponse
	if err := json.Unmarshal(body, &batch); err == nil && len(batch) > 0 {
		return batch[0].GeneratedText, nil
	}

	return "", fmt.Errorf("%w: unexpected response body", ErrInvalidOutput)
}
