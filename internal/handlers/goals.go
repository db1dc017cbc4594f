package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"finai/backend/internal/models"
)

type createGoalRequest struct {
	Name          string           `json:"name"`
	TargetAmount  decimal.Decimal  `json:"targetAmount"`
	CurrentAmount *decimal.Decimal `json:"currentAmount"`
	TargetDate    string           `json:"targetDate"`
	Category      string           `json:"category"`
}

type updateGoalRequest struct {
	Name          *string          `json:"name"`
	TargetAmount  *decimal.Decimal `json:"targetAmount"`
	CurrentAmount *decimal.Decimal `json:"currentAmount"`
	TargetDate    *string          `json:"targetDate"`
	Category      *string          `json:"category"`
}

type goalResponse struct {
	models.FinancialGoal
	Progress float64 `json:"progress"`
}

const goalColumns = `id, user_id, name, target_amount, current_amount, target_date, category, created_at`

func scanGoal(row pgx.Row, goal *models.FinancialGoal) error {
	return row.Scan(&goal.ID, &goal.UserID, &goal.Name, &goal.TargetAmount, &goal.CurrentAmount, &goal.TargetDate, &goal.Category, &goal.CreatedAt)
}

func withProgress(goal models.FinancialGoal) goalResponse {
	return goalResponse{FinancialGoal: goal, Progress: goal.Progress()}
}

func parseGoalDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if parsed, err := time.Parse("2006-01-02", value); err == nil {
		return parsed, nil
	}
	return time.Parse(time.RFC3339, value)
}

func (a *API) ListGoals(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !a.requireStore(w) {
		return
	}
	ctx, cancel := queryContext(r)
	defer cancel()

	goals := []goalResponse{}
	err := a.Store.WithUserConn(ctx, user.ID, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, `SELECT `+goalColumns+` FROM financial_goals WHERE user_id=$1 ORDER BY target_date ASC`, user.ID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var goal models.FinancialGoal
			if err := scanGoal(rows, &goal); err != nil {
				return err
			}
			goals = append(goals, withProgress(goal))
		}
		return rows.Err()
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load goals")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": goals})
}

func (a *API) CreateGoal(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createGoalRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(req.Name) == "" || req.TargetDate == "" || strings.TrimSpace(req.Category) == "" {
		writeError(w, http.StatusBadRequest, "name, targetAmount, targetDate, and category are required")
		return
	}
	if !req.TargetAmount.IsPositive() {
		writeError(w, http.StatusBadRequest, "targetAmount must be positive")
		return
	}
	current := decimal.Zero
	if req.CurrentAmount != nil {
		current = *req.CurrentAmount
	}
	if current.IsNegative() {
		writeError(w, http.StatusBadRequest, "currentAmount must not be negative")
		return
	}
	targetDate, err := parseGoalDate(req.TargetDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "targetDate must be YYYY-MM-DD")
		return
	}
	if !a.requireStore(w) {
		return
	}
	ctx, cancel := queryContext(r)
	defer cancel()

	var goal models.FinancialGoal
	err = a.Store.WithUserConn(ctx, user.ID, func(conn *pgxpool.Conn) error {
		return scanGoal(conn.QueryRow(ctx, `
			INSERT INTO financial_goals (user_id, name, target_amount, current_amount, target_date, category)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+goalColumns,
			user.ID, strings.TrimSpace(req.Name), req.TargetAmount.Round(2), current.Round(2), targetDate, strings.TrimSpace(req.Category)), &goal)
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create goal")
		return
	}
	writeJSON(w, http.StatusCreated, withProgress(goal))
}

func (a *API) UpdateGoal(w http.ResponseWriter, r *http.Request, id int64) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req updateGoalRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	var targetDate *time.Time
	if req.TargetDate != nil {
		parsed, err := parseGoalDate(*req.TargetDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "targetDate must be YYYY-MM-DD")
			return
		}
		targetDate = &parsed
	}
	if req.TargetAmount != nil && !req.TargetAmount.IsPositive() {
		writeError(w, http.StatusBadRequest, "targetAmount must be positive")
		return
	}
	if req.CurrentAmount != nil && req.CurrentAmount.IsNegative() {
		writeError(w, http.StatusBadRequest, "currentAmount must not be negative")
		return
	}
	if !a.requireStore(w) {
		return
	}
	ctx, cancel := queryContext(r)
	defer cancel()

	var goal models.FinancialGoal
	err := a.Store.WithUserConn(ctx, user.ID, func(conn *pgxpool.Conn) error {
		return scanGoal(conn.QueryRow(ctx, `
			UPDATE financial_goals SET
				name = COALESCE($1, name),
				target_amount = COALESCE($2, target_amount),
				current_amount = COALESCE($3, current_amount),
				target_date = COALESCE($4, target_date),
				category = COALESCE($5, category)
			WHERE id=$6 AND user_id=$7
			RETURNING `+goalColumns,
			req.Name, req.TargetAmount, req.CurrentAmount, targetDate, req.Category, id, user.ID), &goal)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "goal not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update goal")
		return
	}
	writeJSON(w, http.StatusOK, withProgress(goal))
}

func (a *API) DeleteGoal(w http.ResponseWriter, r *http.Request, id int64) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !a.requireStore(w) {
		return
	}
	ctx, cancel := queryContext(r)
	defer cancel()

	var deleted int64
	err := a.Store.WithUserConn(ctx, user.ID, func(conn *pgxpool.Conn) error {
		tag, err := conn.Exec(ctx, `DELETE FROM financial_goals WHERE id=$1 AND user_id=$2`, id, user.ID)
		deleted = tag.RowsAffected()
		return err
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete goal")
		return
	}
	if deleted == 0 {
		writeError(w, http.StatusNotFound, "goal not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
