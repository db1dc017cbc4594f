package llm

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"finai/backend/internal/db"
	"finai/backend/internal/models"
)

// Store writes provider usage and health rows.
type Store struct {
	DB *db.Store
}

func NewStore(store *db.Store) *Store {
	return &Store{DB: store}
}

func (s *Store) InsertUsage(ctx context.Context, provider string, record UsageRecord, costIn, costOut float64) error {
	return s.DB.WithConn(ctx, func(conn *pgxpool.Conn) error {
		_, err := conn.Exec(ctx, `
			INSERT INTO llm_usage_logs (provider_name, feature_used, input_tokens, output_tokens, total_tokens, input_cost, output_cost, total_cost, response_time_ms, success, error_message, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			provider, record.Feature, record.InputTokens, record.OutputTokens, record.TotalTokens,
			record.InputCost(costIn), record.OutputCost(costOut), record.TotalCost(costIn, costOut),
			record.Latency.Milliseconds(), record.Success, record.ErrorMessage, time.Now().UTC())
		return err
	})
}

func (s *Store) InsertHealth(ctx context.Context, provider, status string, latency time.Duration, errorMessage *string) error {
	return s.DB.WithConn(ctx, func(conn *pgxpool.Conn) error {
		_, err := conn.Exec(ctx, `
			INSERT INTO llm_provider_health (provider_name, check_time, status, latency_ms, error_message)
			VALUES ($1,$2,$3,$4,$5)`,
			provider, time.Now().UTC(), status, latency.Milliseconds(), errorMessage)
		return err
	})
}

func (s *Store) RecentHealthFailures(ctx context.Context, provider string) (int, error) {
	failures := 0
	err := s.DB.WithConn(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT status FROM llm_provider_health
			WHERE provider_name=$1
			ORDER BY check_time DESC
			LIMIT 3`, provider)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var status string
			if err := rows.Scan(&status); err != nil {
				return err
			}
			if status == HealthError {
				failures++
			}
		}
		return rows.Err()
	})
	return failures, err
}

// UsageSummary aggregates usage rows per provider since a point in time.
type UsageSummary struct {
	Provider      string  `json:"provider"`
	Requests      int64   `json:"requests"`
	Failures      int64   `json:"failures"`
	TotalTokens   int64   `json:"total_tokens"`
	TotalCost     float64 `json:"total_cost"`
	AvgResponseMS float64 `json:"avg_response_ms"`
}

func (s *Store) SummarizeUsage(ctx context.Context, since time.Time) ([]UsageSummary, error) {
	var out []UsageSummary
	err := s.DB.WithConn(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT provider_name,
			       COUNT(*),
			       COUNT(*) FILTER (WHERE NOT success),
			       COALESCE(SUM(total_tokens), 0),
			       COALESCE(SUM(total_cost), 0),
			       COALESCE(AVG(response_time_ms), 0)
			FROM llm_usage_logs
			WHERE created_at >= $1
			GROUP BY provider_name
			ORDER BY provider_name`, since)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var item UsageSummary
			if err := rows.Scan(&item.Provider, &item.Requests, &item.Failures, &item.TotalTokens, &item.TotalCost, &item.AvgResponseMS); err != nil {
				return err
			}
			out = append(out, item)
		}
		return rows.Err()
	})
	return out, err
}

func (s *Store) RecentUsage(ctx context.Context, limit int) ([]models.LLMUsageLog, error) {
	var out []models.LLMUsageLog
	err := s.DB.WithConn(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT id, provider_name, feature_used, input_tokens, output_tokens, total_tokens,
			       input_cost, output_cost, total_cost, response_time_ms, success, error_message, created_at
			FROM llm_usage_logs
			ORDER BY created_at DESC
			LIMIT $1`, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var item models.LLMUsageLog
			if err := rows.Scan(&item.ID, &item.ProviderName, &item.FeatureUsed, &item.InputTokens, &item.OutputTokens, &item.TotalTokens,
				&item.InputCost, &item.OutputCost, &item.TotalCost, &item.ResponseTimeMS, &item.Success, &item.ErrorMessage, &item.CreatedAt); err != nil {
				return err
			}
			out = append(out, item)
		}
		return rows.Err()
	})
	return out, err
}

// LatestHealth returns the most recent check for each provider.
func (s *Store) LatestHealth(ctx context.Context) ([]models.LLMProviderHealth, error) {
	var out []models.LLMProviderHealth
	err := s.DB.WithConn(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT DISTINCT ON (provider_name) id, provider_name, check_time, status, latency_ms, error_message
			FROM llm_provider_health
			ORDER BY provider_name, check_time DESC`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var item models.LLMProviderHealth
			if err := rows.Scan(&item.ID, &item.ProviderName, &item.CheckTime, &item.Status, &item.LatencyMS, &item.ErrorMessage); err != nil {
				return err
			}
			out = append(out, item)
		}
		return rows.Err()
	})
	return out, err
}
