package handlers

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"finai/backend/internal/auth"
	"finai/backend/internal/models"
)

type registerRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

const userColumns = `id, username, display_name, email, password_hash, financial_health_score, portfolio_value, created_at`

func scanUser(row pgx.Row, user *models.User) error {
	return row.Scan(&user.ID, &user.Username, &user.DisplayName, &user.Email, &user.PasswordHash,
		&user.FinancialHealthScore, &user.PortfolioValue, &user.CreatedAt)
}

func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username, email, and password are required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "invalid email")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	if req.DisplayName == "" {
		req.DisplayName = req.Username
	}
	if !a.requireStore(w) {
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	ctx, cancel := queryContext(r)
	defer cancel()

	var user models.User
	query := `
		INSERT INTO users (username, display_name, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	if err := scanUser(a.Store.Pool.QueryRow(ctx, query, req.Username, req.DisplayName, req.Email, string(passwordHash)), &user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeError(w, http.StatusConflict, "username or email already registered")
			return
		}
		a.log().Error("register user", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to register user")
		return
	}

	a.issueSession(w, http.StatusCreated, user)
}

func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	identifier := strings.TrimSpace(req.Email)
	column := "email"
	if identifier == "" {
		identifier = strings.TrimSpace(req.Username)
		column = "username"
	} else {
		identifier = strings.ToLower(identifier)
	}
	if identifier == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email or username and password are required")
		return
	}
	if !a.requireStore(w) {
		return
	}

	ctx, cancel := queryContext(r)
	defer cancel()

	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + `=$1`
	if err := scanUser(a.Store.Pool.QueryRow(ctx, query, identifier), &user); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	a.issueSession(w, http.StatusOK, user)
}

func (a *API) issueSession(w http.ResponseWriter, status int, user models.User) {
	csrf, err := auth.GenerateCSRFToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	token, err := a.Auth.GenerateToken(user, csrf)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	writeJSON(w, status, map[string]any{
		"token":      token,
		"csrf_token": csrf,
		"expires_in": int(a.Auth.TTL().Seconds()),
		"user":       user,
	})
}

func (a *API) Me(w http.ResponseWriter, r *http.Request) {
	current, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !a.requireStore(w) {
		return
	}
	ctx, cancel := queryContext(r)
	defer cancel()

	var user models.User
	if err := scanUser(a.Store.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, current.ID), &user); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}
