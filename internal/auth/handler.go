package auth

import (
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/sundayezeilo/shortlinks/internal/errx"
	"github.com/sundayezeilo/shortlinks/internal/httpx"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Handler serves account registration and login.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler creates an account Handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Register handles POST /auth_users/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", httpx.GetRequestID(ctx))

	req, err := httpx.DecodeJSON[registerRequest](r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	user, err := h.service.Register(ctx, RegisterRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		kind := errx.KindOf(err)
		switch kind {
		case errx.Invalid:
			logger.WarnContext(ctx, "invalid registration", "error", err.Error())
			httpx.WriteKind(w, kind, errx.Message(err))
		case errx.Conflict:
			logger.WarnContext(ctx, "registration conflict", "error", err.Error())
			httpx.WriteKind(w, kind, "user with this email or username already exists")
		default:
			logger.ErrorContext(ctx, "registration failed", "error", err.Error(), "operation", errx.OpOf(err))
			httpx.WriteKind(w, errx.Internal, "unable to register at this time")
		}
		return
	}

	logger.InfoContext(ctx, "user registered", "user_id", user.ID.String())
	httpx.WriteJSON(w, http.StatusCreated, UserResponse{
		ID:        user.ID.String(),
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	})
}

// Login handles POST /auth_users/login. Credentials come as JSON or as an
// OAuth2 password-grant form.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "application/x-www-form-urlencoded" {
		r.Body = http.MaxBytesReader(w, r.Body, httpx.MaxRequestBodySize)
		if err := r.ParseForm(); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed form body", nil)
			return
		}
		req = loginRequest{Username: r.PostForm.Get("username"), Password: r.PostForm.Get("password")}
	} else {
		decoded, err := httpx.DecodeJSON[loginRequest](r)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
			return
		}
		req = decoded
	}

	token, err := h.service.Login(ctx, req.Username, req.Password)
	if err != nil {
		kind := errx.KindOf(err)
		if kind == errx.Unauthorized {
			h.logger.WarnContext(ctx, "login rejected",
				"request_id", httpx.GetRequestID(ctx),
				"username", req.Username,
			)
			w.Header().Set("WWW-Authenticate", "Bearer")
			httpx.WriteKind(w, kind, "incorrect username or password")
			return
		}
		h.logger.ErrorContext(ctx, "login failed",
			"request_id", httpx.GetRequestID(ctx),
			"error", err.Error(),
			"operation", errx.OpOf(err),
		)
		httpx.WriteKind(w, errx.Internal, "unable to log in at this time")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token.Token,
		TokenType:   token.Type,
		ExpiresAt:   token.ExpiresAt,
	})
}
