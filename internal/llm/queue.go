package llm

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"finai/backend/internal/realtime"
)

const sentimentQueueKey = "finai:queue:discussion-sentiment"

// Queue is a Redis list of discussion sentiment jobs.
type Queue struct {
	client *redis.Client
}

type SentimentJob struct {
	DiscussionID int64     `json:"discussion_id"`
	UserID       int64     `json:"user_id"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewQueue(redisURL string) (*Queue, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return NewQueueWithClient(redis.NewClient(opt)), nil
}

func NewQueueWithClient(client *redis.Client) *Queue {
	return &Queue{client: client}
}

func (q *Queue) Client() *redis.Client {
	return q.client
}

func (q *Queue) Enqueue(ctx context.Context, job SentimentJob) error {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, sentimentQueueKey, payload).Err()
}

func (q *Queue) DequeueBatch(ctx context.Context, batchSize int) ([][]byte, error) {
	var items [][]byte
	for i := 0; i < batchSize; i++ {
		item, err := q.client.RPop(ctx, sentimentQueueKey).Bytes()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return items, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, sentimentQueueKey).Result()
}

type SentimentAnalyzer interface {
	AnalyzeSentiment(ctx context.Context, text string) SentimentResult
}

type SentimentSink interface {
	SaveDiscussionSentiment(ctx context.Context, discussionID int64, result SentimentResult) error
}

type Broadcaster interface {
	Broadcast(topic string, payload any)
}

// Worker drains the queue, scores each discussion and pushes the result to
// websocket subscribers.
type Worker struct {
	Queue     *Queue
	Analyzer  SentimentAnalyzer
	Sink      SentimentSink
	Hub       Broadcaster
	BatchSize int
	Logger    *zap.Logger
}

func (w *Worker) Start(ctx context.Context) {
	batch := w.BatchSize
	if batch <= 0 {
		batch = 50
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		items, err := w.Queue.DequeueBatch(ctx, batch)
		if err != nil {
			w.log().Warn("dequeue sentiment jobs", zap.Error(err))
			if !sleepOrDone(ctx, 2*time.Second) {
				return
			}
			continue
		}
		if len(items) == 0 {
			if !sleepOrDone(ctx, 500*time.Millisecond) {
				return
			}
			continue
		}
		for _, raw := range items {
			w.Process(ctx, raw)
		}
	}
}

// Process handles one encoded job. Malformed payloads are dropped.
func (w *Worker) Process(ctx context.Context, raw []byte) {
	var job SentimentJob
	if err := json.Unmarshal(raw, &job); err != nil {
		w.log().Warn("drop malformed sentiment job", zap.Error(err))
		return
	}
	jobCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	result := w.Analyzer.AnalyzeSentiment(jobCtx, job.Text)
	cancel()

	if w.Sink != nil {
		if err := w.Sink.SaveDiscussionSentiment(ctx, job.DiscussionID, result); err != nil {
			w.log().Error("store discussion sentiment", zap.Int64("discussion_id", job.DiscussionID), zap.Error(err))
			return
		}
	}
	if w.Hub != nil {
		w.Hub.Broadcast(realtime.TopicCommunity, map[string]any{
			"type":          "discussion.sentiment",
			"discussion_id": job.DiscussionID,
			"sentiment":     result,
		})
	}
}

func (w *Worker) log() *zap.Logger {
	if w.Logger == nil {
		return zap.NewNop()
	}
	return w.Logger
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	return sleepContext(ctx, d) == nil
}
