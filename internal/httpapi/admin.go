package httpapi

import (
	"bufio"
	"crypto/subtle"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"blog-api/internal/auth"
	"blog-api/internal/model"
	"blog-api/internal/obs"
	"blog-api/internal/store"

	"go.uber.org/zap"
)

const (
	defaultUsersLimit = 10
	maxUsersLimit     = 100
	defaultLogsLimit  = 100
	maxLogsLimit      = 1000
)

type adminRegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=50"`
	Email     string `json:"email" validate:"required,email,max=100"`
	Password  string `json:"password" validate:"required,maxbytes=72"`
	MasterKey string `json:"master_key" validate:"required"`
}

type adminUserView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type logsResponse struct {
	Logs []string `json:"logs"`
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if !s.validateRequest(w, &req) {
		return
	}

	log := obs.WithTrace(r.Context(), s.log)

	a, err := s.store.GetAdminByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Error("lookup admin by email", zap.Error(err))
		writeInternal(w)
		return
	}
	if a == nil || !s.hasher.VerifyPassword(req.Password, a.PasswordHash) {
		obs.ObserveAuth(auth.PrincipalAdmin.String(), "login_failed")
		log.Warn(fmt.Sprintf("Failed login attempt for email: %s", req.Email))
		writeError(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	access, err := s.codec.IssueAccess(a.Username, auth.PrincipalAdmin, s.now())
	if err != nil {
		log.Error("issue access token", zap.Error(err))
		writeInternal(w)
		return
	}

	obs.ObserveAuth(auth.PrincipalAdmin.String(), "login_ok")
	log.Info(fmt.Sprintf("Admin '%s' logged in successfully.", a.Username))
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: access,
		TokenType:   tokenTypeBearer,
		Username:    a.Username,
		UserID:      a.ID,
	})
}

func (s *Server) handleAdminRegister(w http.ResponseWriter, r *http.Request) {
	var req adminRegisterRequest
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

	if subtle.ConstantTimeCompare([]byte(req.MasterKey), []byte(s.cfg.Auth.MasterKey)) != 1 {
		log.Warn(fmt.Sprintf("Invalid master key used during admin registration for username: '%s' and email: %s", req.Username, req.Email))
		writeError(w, http.StatusBadRequest, "Incorrect master key")
		return
	}

	if _, err := s.store.GetAdminByUsername(ctx, req.Username); err == nil {
		log.Warn(fmt.Sprintf("Attempt to register with an existing username: '%s'", req.Username))
		writeError(w, http.StatusBadRequest, "Username already registered")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Error("lookup admin by username", zap.Error(err))
		writeInternal(w)
		return
	}
	if _, err := s.store.GetAdminByEmail(ctx, req.Email); err == nil {
		log.Warn(fmt.Sprintf("Attempt to register with an existing email: %s", req.Email))
		writeError(w, http.StatusBadRequest, "Email already registered")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Error("lookup admin by email", zap.Error(err))
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

	created, err := s.store.CreateAdmin(ctx, model.Admin{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: digest,
	})
	if err != nil {
		if detail, ok := conflictDetail(err); ok {
			writeError(w, http.StatusBadRequest, detail)
			return
		}
		log.Error("create admin", zap.Error(err))
		writeInternal(w)
		return
	}

	log.Info(fmt.Sprintf("New admin registered successfully: '%s' (%s).", created.Username, created.Email))
	writeJSON(w, http.StatusOK, registerResponse{
		Username:  created.Username,
		Email:     created.Email,
		Message:   "Admin registered successfully!",
		CreatedAt: created.CreatedAt,
	})
}

// queryInt parses an optional integer query parameter bounded to [lo, hi].
func queryInt(r *http.Request, name string, def, lo, hi int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("must be an integer")
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("must be between %d and %d", lo, hi)
	}
	return n, nil
}

func writeQueryError(w http.ResponseWriter, field string, err error) {
	writeFieldError(w, field, fmt.Sprintf("The field '%s' %v.", field, err))
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultUsersLimit, 1, maxUsersLimit)
	if err != nil {
		writeQueryError(w, "limit", err)
		return
	}
	offset, err := queryInt(r, "offset", 0, 0, math.MaxInt)
	if err != nil {
		writeQueryError(w, "offset", err)
		return
	}

	p, _ := principalFromContext(r.Context())
	log := obs.WithTrace(r.Context(), s.log)

	users, err := s.store.ListUsers(r.Context(), store.UserFilter{Limit: limit, Offset: offset})
	if err != nil {
		log.Error("list users", zap.Error(err))
		writeInternal(w)
		return
	}

	out := make([]adminUserView, 0, len(users))
	for _, u := range users {
		out = append(out, adminUserView{ID: u.ID, Username: u.Username, Email: u.Email, CreatedAt: u.CreatedAt})
	}

	log.Info(fmt.Sprintf("Admin '%s' retrieved all users ( offset %d, limit %d ).", p.Username(), offset, limit))
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	p, _ := principalFromContext(r.Context())
	log := obs.WithTrace(r.Context(), s.log)

	target, err := s.store.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn(fmt.Sprintf("Attempted deletion of non-existent user with ID: %s by admin '%s'.", id, p.Username()))
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Error("lookup user by id", zap.Error(err))
		writeInternal(w)
		return
	}

	if err := s.store.DeleteUser(r.Context(), target.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Error("delete user", zap.Error(err))
		writeInternal(w)
		return
	}

	log.Info(fmt.Sprintf("Admin '%s' deleted user '%s' (ID: %s).", p.Username(), target.Username, target.ID))
	writeJSON(w, http.StatusOK, detailResponse{Detail: fmt.Sprintf("Deleted user '%s' successfully", target.Username)})
}

func (s *Server) handleAdminLogs(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip", 0, 0, math.MaxInt)
	if err != nil {
		writeQueryError(w, "skip", err)
		return
	}
	limit, err := queryInt(r, "limit", defaultLogsLimit, 1, maxLogsLimit)
	if err != nil {
		writeQueryError(w, "limit", err)
		return
	}

	p, _ := principalFromContext(r.Context())
	log := obs.WithTrace(r.Context(), s.log)

	lines, err := readLogPage(s.cfg.Log.AuditFile, skip, limit)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Error(fmt.Sprintf("Log file not found when requested by admin '%s'.", p.Username()))
			writeError(w, http.StatusNotFound, "Log file not found")
			return
		}
		log.Error("read audit log", zap.Error(err))
		writeInternal(w)
		return
	}

	log.Info(fmt.Sprintf("Admin '%s' retrieved application logs (skip: %d, limit: %d).", p.Username(), skip, limit))
	writeJSON(w, http.StatusOK, logsResponse{Logs: lines})
}

// readLogPage returns lines [skip, skip+limit) of path with every occurrence
// of "password" masked.
func readLogPage(path string, skip, limit int) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fs.ErrNotExist
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make([]string, 0, limit)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for i := 0; sc.Scan(); i++ {
		if i < skip {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, strings.ReplaceAll(sc.Text(), "password", "****"))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
