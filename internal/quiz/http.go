// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package quiz

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/klyptik/internal/platform/apperr"
	"github.com/taibuivan/klyptik/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/klyptik/internal/platform/request"
	"github.com/taibuivan/klyptik/internal/platform/respond"
	"github.com/taibuivan/klyptik/internal/platform/validate"
)

// MaxInstructionLength caps the instruction in runes.
const MaxInstructionLength = 2000

// Handler exposes quiz generation over HTTP.
type Handler struct {
	generator Generator
}

// NewHandler constructs a new [Handler]. A nil generator makes every request
// fail with 503, for deployments without a model endpoint.
func NewHandler(generator Generator) *Handler {
	return &Handler{generator: generator}
}

// Routes returns a [chi.Router] with the quiz endpoints. Callers mount it
// behind the session token guard.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/ask", handler.ask)
	return router
}

type askRequest struct {
	Instruction string `json:"instruction"`
}

/*
Ask generates a quiz for the caller's instruction.

POST /api/ask

Request:
  - Body: askRequest (Instruction)

Response:
  - 200: Quiz
  - 400: Validation failure
  - 401: Missing, expired or invalid token
  - 502: Model failed or answered with unusable output
  - 503: No model configured
*/
func (handler *Handler) ask(writer http.ResponseWriter, request *http.Request) {
	if handler.generator == nil {
		respond.Error(writer, request, apperr.ServiceUnavailable("Quiz generation is not configured"))
		return
	}

	var input askRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required("instruction", input.Instruction).
		MaxLen("instruction", input.Instruction, MaxInstructionLength)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	quiz, err := handler.generator.Generate(request.Context(), input.Instruction)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidOutput):
			respond.Error(writer, request, apperr.BadGateway("Failed to generate valid JSON response", err))
		case errors.Is(err, ErrModelUnavailable):
			respond.Error(writer, request, apperr.BadGateway("Quiz generator is unavailable", err))
		default:
			respond.Error(writer, request, err)
		}
		return
	}

	ctxutil.GetLogger(request.Context()).InfoContext(request.Context(), "quiz_generated",
		slog.Int("questions", len(quiz.Questions)),
	)

	respond.OK(writer, quiz)
}
