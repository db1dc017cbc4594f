package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"finai/backend/internal/llm"
	"finai/backend/internal/models"
	"finai/backend/internal/realtime"
)

const discussionColumns = `d.id, d.user_id, u.display_name, d.title, d.content, d.reply_count, d.view_count, d.status,
	d.sentiment_score, d.sentiment_magnitude, d.sentiment_label, d.created_at`

func scanDiscussion(row pgx.Row, d *models.Discussion) error {
	return row.Scan(&d.ID, &d.UserID, &d.Author, &d.Title, &d.Content, &d.ReplyCount, &d.ViewCount, &d.Status,
		&d.SentimentScore, &d.SentimentMagnitude, &d.SentimentLabel, &d.CreatedAt)
}

func (a *API) ListDiscussions(w http.ResponseWriter, r *http.Request) {
	if !a.requireStore(w) {
		return
	}
	page, limit := parsePagination(r)
	ctx, cancel := queryContext(r)
	defer cancel()

	discussions := []models.Discussion{}
	err := a.Store.WithConn(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+discussionColumns+`
			FROM discussions d
			JOIN users u ON u.id = d.user_id
			ORDER BY d.created_at DESC
			LIMIT $1 OFFSET $2`, limit, (page-1)*limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var d models.Discussion
			if err := scanDiscussion(rows, &d); err != nil {
				return err
			}
			discussions = append(discussions, d)
		}
		return rows.Err()
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load discussions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": discussions, "page": page, "limit": limit})
}

func (a *API) GetDiscussion(w http.ResponseWriter, r *http.Request, id int64) {
	if !a.requireStore(w) {
		return
	}
	ctx, cancel := queryContext(r)
	defer cancel()

	var d models.Discussion
	err := a.Store.WithConn(ctx, func(conn *pgxpool.Conn) error {
		return scanDiscussion(conn.QueryRow(ctx, `
			UPDATE discussions d SET view_count = d.view_count + 1
			FROM users u
			WHERE d.id=$1 AND u.id = d.user_id
			RETURNING `+discussionColumns, id), &d)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "discussion not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load discussion")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// CreateDiscussion stores the post and queues it for sentiment scoring.
func (a *API) CreateDiscussion(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	if req.Title == "" || req.Content == "" {
		writeError(w, http.StatusBadRequest, "title and content are required")
		return
	}
	if !a.requireStore(w) {
		return
	}
	ctx, cancel := queryContext(r)
	defer cancel()

	var d models.Discussion
	err := a.Store.WithConn(ctx, func(conn *pgxpool.Conn) error {
		return scanDiscussion(conn.QueryRow(ctx, `
			WITH inserted AS (
				INSERT INTO discussions (user_id, title, content)
				VALUES ($1, $2, $3)
				RETURNING *
			)
			SELECT `+discussionColumns+`
			FROM inserted d
			JOIN users u ON u.id = d.user_id`, user.ID, req.Title, req.Content), &d)
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create discussion")
		return
	}

	if a.Queue != nil {
		job := llm.SentimentJob{DiscussionID: d.ID, UserID: user.ID, Text: d.Title + "\n\n" + d.Content}
		if err := a.Queue.Enqueue(ctx, job); err != nil {
			a.log().Warn("enqueue discussion sentiment", zap.Int64("discussion_id", d.ID), zap.Error(err))
		}
	}
	if a.Hub != nil {
		a.Hub.Broadcast(realtime.TopicCommunity, map[string]any{
			"type":       "discussion.created",
			"discussion": d,
		})
	}
	writeJSON(w, http.StatusCreated, d)
}

func (a *API) ListReplies(w http.ResponseWriter, r *http.Request, discussionID int64) {
	if !a.requireStore(w) {
		return
	}
	ctx, cancel := queryContext(r)
	defer cancel()

	replies := []models.DiscussionReply{}
	err := a.Store.WithConn(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT r.id, r.discussion_id, r.user_id, u.display_name, r.content, r.is_expert, r.created_at
			FROM discussion_replies r
			JOIN users u ON u.id = r.user_id
			WHERE r.discussion_id=$1
			ORDER BY r.created_at ASC`, discussionID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var reply models.DiscussionReply
			if err := rows.Scan(&reply.ID, &reply.DiscussionID, &reply.UserID, &reply.Author, &reply.Content, &reply.IsExpert, &reply.CreatedAt); err != nil {
				return err
			}
			replies = append(replies, reply)
		}
		return rows.Err()
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load replies")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": replies})
}

// CreateReply adds a reply and bumps the discussion's reply count.
func (a *API) CreateReply(w http.ResponseWriter, r *http.Request, discussionID int64) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	if !a.requireStore(w) {
		return
	}
	ctx, cancel := queryContext(r)
	defer cancel()

	reply := models.DiscussionReply{DiscussionID: discussionID, UserID: user.ID, Author: user.Username, Content: req.Content}
	err := a.Store.WithConn(ctx, func(conn *pgxpool.Conn) error {
		tx, err := conn.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		tag, err := tx.Exec(ctx, `UPDATE discussions SET reply_count = reply_count + 1, status = 'active' WHERE id=$1`, discussionID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		if err := tx.QueryRow(ctx, `
			INSERT INTO discussion_replies (discussion_id, user_id, content)
			VALUES ($1, $2, $3)
			RETURNING id, is_expert, created_at`, discussionID, user.ID, req.Content).Scan(&reply.ID, &reply.IsExpert, &reply.CreatedAt); err != nil {
			return err
		}
		return tx.Commit(ctx)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "discussion not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create reply")
		return
	}

	if a.Hub != nil {
		a.Hub.Broadcast(realtime.TopicCommunity, map[string]any{
			"type":  "discussion.reply",
			"reply": reply,
		})
	}
	writeJSON(w, http.StatusCreated, reply)
}
