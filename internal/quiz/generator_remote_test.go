// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package quiz_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/klyptik/internal/quiz"
)

func modelServer(t *testing.T, handle func(calls int32, writer http.ResponseWriter, inputs string)) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		var body struct {
			Inputs     string          `json:"inputs"`
			Parameters quiz.Parameters `json:"parameters"`
		}
		if !assert.NoError(t, json.NewDecoder(request.Body).Decode(&body)) {
			writer.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, quiz.DefaultParameters(), body.Parameters)
		handle(calls.Add(1), writer, body.Inputs)
	}))
	t.Cleanup(server.Close)

	return server, &calls
}

/*
TestRemoteGenerator_Success sends the chat prompt and parses the answer.
*/
func TestRemoteGenerator_Success(t *testing.T) {
	server, calls := modelServer(t, func(_ int32, writer http.ResponseWriter, inputs string) {
		assert.True(t, strings.Contains(inputs, "Generate a JSON quiz based on this instruction: capitals of Europe"))
		_, _ = writer.Write([]byte(`{"generated_text": "{\"quiz\": [{\"q\": \"Capital of France?\"}]}"}`))
	})

	result, err := quiz.NewRemoteGenerator(server.URL, time.Second).Generate(context.Background(), "capitals of Europe")
	require.NoError(t, err)
	assert.Len(t, result.Questions, 1)
	assert.Equal(t, int32(1), calls.Load())
}

/*
TestRemoteGenerator_BatchResponse accepts the one-element array form.
*/
func TestRemoteGenerator_BatchResponse(t *testing.T) {
	server, _ := modelServer(t, func(_ int32, writer http.ResponseWriter, _ string) {
		_, _ = writer.Write([]byte(`[{"generated_text": "[{\"q\": \"a\"}, {\"q\": \"b\"}]"}]`))
	})

	result, err := quiz.NewRemoteGenerator(server.URL, time.Second).Generate(context.Background(), "x")
	require.NoError(t, err)
	assert.Len(t, result.Questions, 2)
}

/*
TestRemoteGenerator_RetriesServerErrorsOnce checks a 5xx is retried exactly once.
*/
func TestRemoteGenerator_RetriesServerErrorsOnce(t *testing.T) {
	server, calls := modelServer(t, func(call int32, writer http.ResponseWriter, _ string) {
		if call == 1 {
			writer.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = writer.Write([]byte(`{"generated_text": "{\"quiz\": []}"}`))
	})

	_, err := quiz.NewRemoteGenerator(server.URL, time.Second).Generate(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

/*
TestRemoteGenerator_Failures maps collaborator failures to their sentinels.
*/
func TestRemoteGenerator_Failures(t *testing.T) {
	t.Run("client_error_not_retried", func(t *testing.T) {
		server, calls := modelServer(t, func(_ int32, writer http.ResponseWriter, _ string) {
			writer.WriteHeader(http.StatusUnprocessableEntity)
		})

		_, err := quiz.NewRemoteGenerator(server.URL, time.Second).Generate(context.Background(), "x")
		assert.ErrorIs(t, err, quiz.ErrModelUnavailable)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("persistent_server_error", func(t *testing.T) {
		server, calls := modelServer(t, func(_ int32, writer http.ResponseWriter, _ string) {
			writer.WriteHeader(http.StatusBadGateway)
		})

		_, err := quiz.NewRemoteGenerator(server.URL, time.Second).Generate(context.Background(), "x")
		assert.ErrorIs(t, err, quiz.ErrModelUnavailable)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("prose_instead_of_json", func(t *testing.T) {
		server, _ := modelServer(t, func(_ int32, writer http.ResponseWriter, _ string) {
			_, _ = writer.Write([]byte(`{"generated_text": "Here is a lovely quiz about cats."}`))
		})

		_, err := quiz.NewRemoteGenerator(server.URL, time.Second).Generate(context.Background(), "x")
		assert.ErrorIs(t, err, quiz.ErrInvalidOutput)
	})
}
