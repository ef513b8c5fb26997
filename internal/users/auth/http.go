// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/klyptik/internal/platform/request"
	"github.com/taibuivan/klyptik/internal/platform/respond"
	"github.com/taibuivan/klyptik/internal/platform/validate"
	"github.com/taibuivan/klyptik/internal/users/identity"
	"github.com/taibuivan/klyptik/pkg/pointer"
)

// explicitUsername is what a client may ask for at registration.
var explicitUsername = regexp.MustCompile(`^[A-Za-z0-9._]{3,30}$`)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /register : Creates a new account and signs it in.
//   - POST /login    : Authenticates by email or username.
//   - GET  /me       : Returns the caller's profile (guarded).
//   - PUT  /me       : Updates the caller's profile (guarded).
func (handler *Handler) Routes(guard func(http.Handler) http.Handler) chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(guard)
		r.Get("/me", handler.getMe)
		r.Put("/me", handler.updateMe)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Username        string `json:"username"`
}

type loginRequest struct {
	Identifier string `json:"email_or_username"`
	Password   string `json:"password"`
}

type updateMeRequest struct {
	DisplayName *string `json:"display_name"`
	PhotoURL    *string `json:"photo_url"`
}

// sessionResponse is the body of a successful register or login.
type sessionResponse struct {
	Account   AccountSummary `json:"account"`
	Token     string         `json:"token"`
	TokenType string         `json:"token_type"`
	ExpiresIn int64          `json:"expires_in"`
}

func newSessionResponse(result *AuthResult) sessionResponse {
	return sessionResponse{
		Account:   result.Account,
		Token:     result.Session.Token,
		TokenType: TokenType,
		ExpiresIn: int64(result.Session.TTL / time.Second),
	}
}

/*
Register handles the creation of a new account.

POST /auth/register

Request:
  - Body: registerRequest (Name, Email, Password, ConfirmPassword, Username?)

Response:
  - 201: sessionResponse: Account summary and session token
  - 400: Validation failure, mismatched or weak password
  - 409: Email or username already taken
  - 503: Identity provider unavailable
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).
		MaxLen(FieldName, input.Name, MaxDisplayNameLength).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, strings.TrimSpace(input.Email)).
		Required(FieldPassword, input.Password).
		MaxBytes(FieldPassword, input.Password, MaxPasswordBytes).
		Required(FieldConfirmPassword, input.ConfirmPassword)

	if input.Username != "" {
		validator.Match(FieldUsername, input.Username, explicitUsername,
			"Use 3 to 30 letters, digits, dots or underscores")
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.authService.Register(request.Context(), RegisterInput{
		Name:            input.Name,
		Email:           input.Email,
		Password:        input.Password,
		ConfirmPassword: input.ConfirmPassword,
		Username:        input.Username,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, newSessionResponse(result))
}

/*
Login authenticates by email or username.

POST /auth/login

Request:
  - Body: loginRequest (Identifier, Password)

Response:
  - 200: sessionResponse: Account summary and session token
  - 401: Invalid credentials (identical for every failure cause)
  - 503: Identity provider unavailable
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldIdentifier, input.Identifier)
	validator.Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.authService.Login(request.Context(), LoginInput{
		Identifier: input.Identifier,
		Password:   input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, newSessionResponse(result))
}

// # Profile Endpoints

/*
GET /auth/me.

Description: Retrieves the full private profile of the authenticated caller.

Response:
  - 200: Profile
  - 401: Missing, expired or invalid token
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	accountID, err := requestutil.RequiredAccountID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	profile, err := handler.authService.Profile(request.Context(), accountID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile)
}

/*
PUT /auth/me.

Description: Applies a partial update to the caller's profile. Fields left out
of the body are not touched; the account is always the token's.

Request:
  - Body: updateMeRequest (DisplayName?, PhotoURL?)

Response:
  - 200: Profile: The updated profile
  - 400: Validation failure
  - 401: Missing, expired or invalid token
  - 404: Account no longer exists
*/
func (handler *Handler) updateMe(writer http.ResponseWriter, request *http.Request) {
	accountID, err := requestutil.RequiredAccountID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateMeRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	fields := identity.ProfileFields{
		DisplayName: pointer.Map(input.DisplayName, strings.TrimSpace),
		PhotoURL:    pointer.Map(input.PhotoURL, strings.TrimSpace),
	}

	validator := &validate.Validator{}
	if fields.DisplayName != nil {
		validator.MaxLen(FieldDisplayName, *fields.DisplayName, MaxDisplayNameLength)
	}
	if photoURL := pointer.Val(fields.PhotoURL); photoURL != "" {
		validator.URL(FieldPhotoURL, photoURL).MaxLen(FieldPhotoURL, photoURL, MaxPhotoURLLength)
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	profile, err := handler.authService.UpdateProfile(request.Context(), accountID, fields)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile)
}
