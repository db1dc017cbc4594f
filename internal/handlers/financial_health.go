package handlers

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"finai/backend/internal/health"
	"finai/backend/internal/models"
)

// ScoreFinancialHealth scores raw ratios. Signed-in users also get the result
// stored as their latest score.
func (a *API) ScoreFinancialHealth(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := readBody(r, &raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if len(raw) == 0 {
		writeError(w, http.StatusBadRequest, "Financial data is required")
		return
	}

	data := health.ParseFinancialData(raw)
	result := health.ComputeScore(data)

	if user, ok := currentUser(r); ok && a.Store != nil {
		if err := a.saveHealthScore(r, user.ID, data, result); err != nil {
			a.log().Warn("store financial health", zap.Int64("user_id", user.ID), zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) saveHealthScore(r *http.Request, userID int64, data health.FinancialData, result health.Result) error {
	ctx, cancel := queryContext(r)
	defer cancel()
	return a.Store.WithUserConn(ctx, userID, func(conn *pgxpool.Conn) error {
		tx, err := conn.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		if _, err := tx.Exec(ctx, `
			INSERT INTO financial_health_data (user_id, savings_rate, debt_to_income, emergency_fund, investment_rate, score, category, recommendations)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			userID, data.SavingsRate, data.DebtToIncome, data.EmergencyFund, data.InvestmentRate,
			result.Score, string(result.Category), result.Recommendations); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE users SET financial_health_score=$1 WHERE id=$2`, result.Score, userID); err != nil {
			return err
		}
		return tx.Commit(ctx)
	})
}

func (a *API) LatestFinancialHealth(w http.ResponseWriter, r *http.Request) {
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

	var record models.FinancialHealthRecord
	err := a.Store.WithUserConn(ctx, user.ID, func(conn *pgxpool.Conn) error {
		return conn.QueryRow(ctx, `
			SELECT id, user_id, savings_rate, debt_to_income, emergency_fund, investment_rate, score, category, recommendations, created_at
			FROM financial_health_data
			WHERE user_id=$1
			ORDER BY created_at DESC
			LIMIT 1`, user.ID).Scan(
			&record.ID, &record.UserID, &record.SavingsRate, &record.DebtToIncome, &record.EmergencyFund,
			&record.InvestmentRate, &record.Score, &record.Category, &record.Recommendations, &record.CreatedAt)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "no financial health score yet")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load financial health")
		return
	}
	writeJSON(w, http.StatusOK, record)
}
