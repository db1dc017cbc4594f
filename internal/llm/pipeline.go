package llm

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"finai/backend/internal/db"
)

// DiscussionSentimentStore writes worker results onto the discussion row.
type DiscussionSentimentStore struct {
	DB *db.Store
}

func (s *DiscussionSentimentStore) SaveDiscussionSentiment(ctx context.Context, discussionID int64, result SentimentResult) error {
	return s.DB.WithConn(ctx, func(conn *pgxpool.Conn) error {
		_, err := conn.Exec(ctx, `
			UPDATE discussions
			SET sentiment_score=$1, sentiment_magnitude=$2, sentiment_label=$3
			WHERE id=$4`, result.Score, result.Magnitude, result.Sentiment, discussionID)
		return err
	})
}
