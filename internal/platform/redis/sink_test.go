package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/assessment"
	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/logger"
)

func TestMessageFromPayloadKeepsOrder(t *testing.T) {
	p := assessment.ReportPayload{
		UploadID:      "up-1",
		Student:       assessment.Student{ID: "stu-1"},
		PredictorMode: assessment.ModeFallback,
		Recommendations: []assessment.Recommendation{
			{Category: assessment.CategoryAcademic, Priority: assessment.PriorityHigh, Title: "first"},
			{Category: assessment.CategoryCareer, Priority: assessment.PriorityLow, Title: "second"},
		},
	}
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.FixedZone("IST", 19800))
	msg := MessageFromPayload(p, at)
	if msg.Recommendations[0].Title != "first" || msg.Recommendations[1].Title != "second" {
		t.Fatalf("order: got=%+v", msg.Recommendations)
	}
	if msg.PublishedAt.Location() != time.UTC {
		t.Fatalf("published_at: want UTC got=%v", msg.PublishedAt.Location())
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := decodeMessage(string(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back.UploadID != "up-1" || back.StudentID != "stu-1" || len(back.Recommendations) != 2 {
		t.Fatalf("decoded: got=%+v", back)
	}
}

func TestMessageFromPayloadEmptyList(t *testing.T) {
	msg := MessageFromPayload(assessment.ReportPayload{UploadID: "up-2"}, time.Unix(0, 0))
	raw, _ := json.Marshal(msg)
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := out["recommendations"].([]interface{}); !ok {
		t.Fatalf("recommendations: want [] got=%v", out["recommendations"])
	}
}

func TestDecodeMessageRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "{", `{"recommendations":[]}`} {
		if _, err := decodeMessage(in); err == nil {
			t.Fatalf("%q: want error", in)
		}
	}
}

func TestPublishFailsWithoutServer(t *testing.T) {
	rdb := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	sink := NewRecommendationSinkWithClient(logger.Nop(), rdb, "")
	defer sink.Close()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := sink.Publish(ctx, RecommendationMessage{UploadID: "up-3"}); err == nil {
		t.Fatalf("want error publishing to a closed port")
	}
}

func TestNewRecommendationSinkRequiresAddr(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	if _, err := NewRecommendationSink(logger.Nop()); err == nil {
		t.Fatalf("want error without REDIS_ADDR")
	}
}
