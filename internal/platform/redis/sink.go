package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/envutil"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/logger"
)

const DefaultChannel = "edusight.recommendations"

// RecommendationMessage is the delivery record for one run's ordered recommendations.
type RecommendationMessage struct {
	UploadID        string                      `json:"upload_id"`
	StudentID       string                      `json:"student_id"`
	PredictorMode   assessment.PredictorMode    `json:"predictor_mode"`
	Recommendations []assessment.Recommendation `json:"recommendations"`
	PublishedAt     time.Time                   `json:"published_at"`
}

// MessageFromPayload keeps the synthesizer's order untouched.
func MessageFromPayload(p assessment.ReportPayload, at time.Time) RecommendationMessage {
	recs := p.Recommendations
	if recs == nil {
		recs = []assessment.Recommendation{}
	}
	return RecommendationMessage{
		UploadID:        p.UploadID,
		StudentID:       p.Student.ID,
		PredictorMode:   p.PredictorMode,
		Recommendations: recs,
		PublishedAt:     at.UTC(),
	}
}

type RecommendationSink interface {
	Publish(ctx context.Context, msg RecommendationMessage) error
	StartForwarder(ctx context.Context, onMsg func(m RecommendationMessage)) error
	Client() goredis.UniversalClient
	Close() error
}

type recommendationSink struct {
	log     *logger.Logger
	rdb     goredis.UniversalClient
	channel string
}

// NewRecommendationSink connects to REDIS_ADDR and publishes on REDIS_RECOMMENDATION_CHANNEL.
func NewRecommendationSink(log *logger.Logger) (RecommendationSink, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := envutil.String("REDIS_ADDR", "")
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    envutil.String("REDIS_PASSWORD", ""),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRecommendationSinkWithClient(log, rdb, envutil.String("REDIS_RECOMMENDATION_CHANNEL", DefaultChannel)), nil
}

func NewRecommendationSinkWithClient(log *logger.Logger, rdb goredis.UniversalClient, channel string) RecommendationSink {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = DefaultChannel
	}
	return &recommendationSink{
		log:     log.With("service", "RedisRecommendationSink"),
		rdb:     rdb,
		channel: channel,
	}
}

func (s *recommendationSink) Publish(ctx context.Context, msg RecommendationMessage) error {
	if s == nil || s.rdb == nil {
		return fmt.Errorf("redis recommendation sink not initialized")
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := s.rdb.Publish(ctx, s.channel, raw).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	s.log.Debug("recommendations published", "upload_id", msg.UploadID, "count", len(msg.Recommendations))
	return nil
}

func (s *recommendationSink) StartForwarder(ctx context.Context, onMsg func(m RecommendationMessage)) error {
	if s == nil || s.rdb == nil {
		return fmt.Errorf("redis recommendation sink not initialized")
	}
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}

	sub := s.rdb.Subscribe(ctx, s.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				msg, err := decodeMessage(m.Payload)
				if err != nil {
					s.log.Warn("bad recommendation payload", "error", err)
					continue
				}
				onMsg(msg)
			}
		}
	}()
	return nil
}

func (s *recommendationSink) Client() goredis.UniversalClient { return s.rdb }

func (s *recommendationSink) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func decodeMessage(payload string) (RecommendationMessage, error) {
	var msg RecommendationMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return RecommendationMessage{}, err
	}
	if msg.UploadID == "" {
		return RecommendationMessage{}, fmt.Errorf("message has no upload_id")
	}
	return msg, nil
}
