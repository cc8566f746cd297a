package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"blog-api/internal/auth"
	"blog-api/internal/model"
	"blog-api/internal/obs"
	"blog-api/internal/store"

	"go.uber.org/zap"
)

const tokenTypeBearer = "bearer"

type registerRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=50"`
	Email       string `json:"email" validate:"required,email,max=100"`
	Password    string `json:"password" validate:"required,maxbytes=72"`
	FullName    string `json:"full_name" validate:"max=100"`
	PhoneNumber string `json:"phone_number" validate:"max=20"`
	Bio         string `json:"bio" validate:"max=500"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerResponse struct {
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	Username     string `json:"username"`
	UserID       string `json:"user_id,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if !s.validateRequest(w, &req) {
		return
	}

	ctx := r.Context()
	log := obs.WithTrace(ctx, s.log)

	if _, err := s.store.GetUserByUsername(ctx, req.Username); err == nil {
		log.Warn(fmt.Sprintf("Attempt to register with an existing username: %s", req.Username))
		writeError(w, http.StatusBadRequest, "Username already registered")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Error("lookup user by username", zap.Error(err))
		writeInternal(w)
		return
	}
	if _, err := s.store.GetUserByEmail(ctx, req.Email); err == nil {
		log.Warn(fmt.Sprintf("Attempt to register with an existing email: %s", req.Email))
		writeError(w, http.StatusBadRequest, "Email already registered")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Error("lookup user by email", zap.Error(err))
		writeInternal(w)
		return
	}

	digest, err := s.hasher.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordEncoding) {
			writeFieldError(w, "password", "The field 'password' contains bytes that cannot be hashed.")
			return
		}
		log.Error("hash credential", zap.Error(err))
		writeInternal(w)
		return
	}

	created, err := s.store.CreateUser(ctx, model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: digest,
		FullName:     req.FullName,
		PhoneNumber:  req.PhoneNumber,
		Bio:          req.Bio,
	})
	if err != nil {
		// Lost a race with a concurrent registration.
		if detail, ok := conflictDetail(err); ok {
			writeError(w, http.StatusBadRequest, detail)
			return
		}
		log.Error("create user", zap.Error(err))
		writeInternal(w)
		return
	}

	log.Info(fmt.Sprintf("New user registered successfully: %s (%s).", created.Username, created.Email))
	writeJSON(w, http.StatusOK, registerResponse{
		Username:  created.Username,
		Email:     created.Email,
		Message:   "Registered successfully",
		CreatedAt: created.CreatedAt,
	})
}

func conflictDetail(err error) (string, bool) {
	var ce *store.ConflictError
	if !errors.As(err, &ce) {
		return "", false
	}
	switch ce.Field {
	case "email":
		return "Email already registered", true
	default:
		return "Username already registered", true
	}
}

// authenticateUser returns nil, nil for an unknown email or a wrong password.
func (s *Server) authenticateUser(r *http.Request, email, password string) (*model.User, error) {
	u, err := s.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !s.hasher.VerifyPassword(password, u.PasswordHash) {
		return nil, nil
	}
	return u, nil
}

func (s *Server) handleUserLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if !s.validateRequest(w, &req) {
		return
	}
	s.loginUser(w, r, req.Email, req.Password, true)
}

// handleFormLogin serves OAuth2 password-flow clients: the "username" form
// field carries the email address.
func (s *Server) handleFormLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	email := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")
	if email == "" || password == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": []fieldError{
			{Field: "username", Msg: "The field 'username' is required."},
			{Field: "password", Msg: "The field 'password' is required."},
		}})
		return
	}
	s.loginUser(w, r, email, password, false)
}

func (s *Server) loginUser(w http.ResponseWriter, r *http.Request, email, password string, withRefresh bool) {
	log := obs.WithTrace(r.Context(), s.log)

	u, err := s.authenticateUser(r, email, password)
	if err != nil {
		log.Error("lookup user by email", zap.Error(err))
		writeInternal(w)
		return
	}
	if u == nil {
		obs.ObserveAuth(auth.PrincipalUser.String(), "login_failed")
		log.Warn(fmt.Sprintf("Failed login attempt for email: %s", email))
		writeError(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	now := s.now()
	access, err := s.codec.IssueAccess(u.Username, auth.PrincipalUser, now)
	if err != nil {
		log.Error("issue access token", zap.Error(err))
		writeInternal(w)
		return
	}
	resp := loginResponse{AccessToken: access, TokenType: tokenTypeBearer, Username: u.Username}

	if withRefresh {
		refresh, err := s.codec.IssueRefresh(u.Username, auth.PrincipalUser, now)
		if err != nil {
			log.Error("issue refresh token", zap.Error(err))
			writeInternal(w)
			return
		}
		resp.RefreshToken = refresh
		resp.UserID = u.ID
	}

	obs.ObserveAuth(auth.PrincipalUser.String(), "login_ok")
	log.Info(fmt.Sprintf("User '%s' logged in successfully.", u.Username))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !s.validateRequest(w, &req) {
		return
	}

	log := obs.WithTrace(r.Context(), s.log)
	now := s.now()

	p, err := s.resolver.Resolve(r.Context(), req.RefreshToken, auth.KindRefresh, auth.PrincipalUser, now)
	if err != nil {
		if auth.IsUnauthorized(err) {
			obs.ObserveAuth(auth.PrincipalUser.String(), "refresh_rejected")
			log.Warn("Refresh token rejected.", zap.Error(err))
			writeUnauthorized(w)
			return
		}
		log.Error("resolve refresh token", zap.Error(err))
		writeInternal(w)
		return
	}

	access, err := s.codec.IssueAccess(p.Username(), auth.PrincipalUser, now)
	if err != nil {
		log.Error("issue access token", zap.Error(err))
		writeInternal(w)
		return
	}
	obs.ObserveAuth(auth.PrincipalUser.String(), "refresh_ok")
	writeJSON(w, http.StatusOK, refreshResponse{AccessToken: access, TokenType: tokenTypeBearer})
}

func (s *Server) handleProtected(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFromContext(r.Context())
	writeJSON(w, http.StatusOK, detailResponse{Detail: fmt.Sprintf("Hello, %s! You have access to this protected route.", p.Username())})
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFromContext(r.Context())
	log := obs.WithTrace(r.Context(), s.log)

	if err := s.store.DeleteUser(r.Context(), p.User.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn(fmt.Sprintf("Attempted deletion of account with ID: %s by user '%s'.", p.User.ID, p.User.Username))
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Error("delete user", zap.Error(err))
		writeInternal(w)
		return
	}

	log.Info(fmt.Sprintf("User '%s' deleted account (ID: %s).", p.User.Username, p.User.ID))
	writeJSON(w, http.StatusOK, detailResponse{Detail: fmt.Sprintf("Deleted account of '%s' successfully", p.User.Username)})
}
