package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"finai/backend/internal/crypto"
	"finai/backend/internal/llm"
	"finai/backend/internal/models"
)

var errSessionNotFound = errors.New("chat session not found")

func (a *API) ListChatSessions(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !a.requireStore(w) {
		return
	}
	page, limit := parsePagination(r)
	ctx, cancel := queryContext(r)
	defer cancel()

	sessions := []models.ChatSession{}
	err := a.Store.WithUserConn(ctx, user.ID, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT id, public_id, user_id, language, created_at, updated_at
			FROM chat_sessions
			WHERE user_id=$1
			ORDER BY updated_at DESC
			LIMIT $2 OFFSET $3`, user.ID, limit, (page-1)*limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var s models.ChatSession
			if err := rows.Scan(&s.ID, &s.PublicID, &s.UserID, &s.Language, &s.CreatedAt, &s.UpdatedAt); err != nil {
				return err
			}
			sessions = append(sessions, s)
		}
		return rows.Err()
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load chat sessions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": sessions, "page": page, "limit": limit})
}

func (a *API) CreateChatSession(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		Language string `json:"language"`
	}
	if err := readBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Language == "" {
		req.Language = llm.LanguageEnglish
	}
	if !a.requireStore(w) {
		return
	}
	ctx, cancel := queryContext(r)
	defer cancel()

	var session models.ChatSession
	err := a.Store.WithUserConn(ctx, user.ID, func(conn *pgxpool.Conn) error {
		return conn.QueryRow(ctx, `
			INSERT INTO chat_sessions (public_id, user_id, language)
			VALUES ($1, $2, $3)
			RETURNING id, public_id, user_id, language, created_at, updated_at`,
			uuid.New(), user.ID, strings.ToLower(req.Language)).Scan(
			&session.ID, &session.PublicID, &session.UserID, &session.Language, &session.CreatedAt, &session.UpdatedAt)
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create chat session")
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (a *API) GetChatMessages(w http.ResponseWriter, r *http.Request, publicID string) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	sessionUUID, err := uuid.Parse(publicID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	if !a.requireStore(w) {
		return
	}
	ctx, cancel := queryContext(r)
	defer cancel()

	messages := []models.ChatMessage{}
	err = a.Store.WithUserConn(ctx, user.ID, func(conn *pgxpool.Conn) error {
		sessionID, err := lookupSession(ctx, conn, user.ID, sessionUUID)
		if err != nil {
			return err
		}
		rows, err := conn.Query(ctx, `
			SELECT id, session_id, role, content, encrypted, timestamp
			FROM chat_messages
			WHERE session_id=$1
			ORDER BY timestamp ASC, id ASC`, sessionID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var m models.ChatMessage
			if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.Encrypted, &m.Timestamp); err != nil {
				return err
			}
			messages = append(messages, m)
		}
		return rows.Err()
	})
	if errors.Is(err, errSessionNotFound) {
		writeError(w, http.StatusNotFound, "chat session not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load chat messages")
		return
	}

	for i := range messages {
		if !messages[i].Encrypted {
			continue
		}
		plain, err := a.openContent(messages[i].Content, sessionUUID)
		if err != nil {
			a.log().Warn("decrypt chat message", zap.Int64("message_id", messages[i].ID), zap.Error(err))
			messages[i].Content = ""
			continue
		}
		messages[i].Content = plain
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": messages})
}

func lookupSession(ctx context.Context, conn *pgxpool.Conn, userID int64, publicID uuid.UUID) (int64, error) {
	var id int64
	err := conn.QueryRow(ctx, `SELECT id FROM chat_sessions WHERE public_id=$1 AND user_id=$2`, publicID, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, errSessionNotFound
	}
	return id, err
}

// sealContent encrypts chat text for one session when a sealer is configured.
func (a *API) sealContent(content string, session uuid.UUID) (string, bool, error) {
	if a.Sealer == nil {
		return content, false, nil
	}
	sealed, err := a.Sealer.Seal(content, crypto.SessionScope(session.String()))
	if err != nil {
		return "", false, err
	}
	return sealed, true, nil
}

func (a *API) openContent(sealed string, session uuid.UUID) (string, error) {
	if a.Sealer == nil {
		return "", errors.New("chat message is encrypted but no MASTER_KEY is configured")
	}
	return a.Sealer.Open(sealed, crypto.SessionScope(session.String()))
}

// appendChatExchange stores the user message and the reply in one transaction.
func (a *API) appendChatExchange(ctx context.Context, userID int64, publicID, message, reply string) error {
	sessionUUID, err := uuid.Parse(publicID)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return a.Store.WithUserConn(ctx, userID, func(conn *pgxpool.Conn) error {
		sessionID, err := lookupSession(ctx, conn, userID, sessionUUID)
		if err != nil {
			return err
		}
		tx, err := conn.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		now := time.Now().UTC()
		for i, msg := range []llm.ChatMessage{{Role: llm.RoleUser, Content: message}, {Role: llm.RoleAssistant, Content: reply}} {
			content, encrypted, err := a.sealContent(msg.Content, sessionUUID)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO chat_messages (session_id, role, content, encrypted, timestamp)
				VALUES ($1, $2, $3, $4, $5)`,
				sessionID, msg.Role, content, encrypted, now.Add(time.Duration(i)*time.Millisecond)); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, `UPDATE chat_sessions SET updated_at=$1 WHERE id=$2`, now, sessionID); err != nil {
			return err
		}
		return tx.Commit(ctx)
	})
}
