// Package events fans interview progress out to live listeners over Redis
// pub/sub.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

type Type string

const (
	TypeTurn          Type = "turn"
	TypeStatus        Type = "status"
	TypeAnalysisReady Type = "analysis_ready"
	TypeAnalysisError Type = "analysis_failed"
	TypeTranscript    Type = "stt_result"
)

type Event struct {
	Type        Type      `json:"type"`
	InterviewID string    `json:"interviewId"`
	Status      string    `json:"status,omitempty"`
	Cursor      *int      `json:"cursor,omitempty"`
	Payload     any       `json:"payload,omitempty"`
	Message     string    `json:"message,omitempty"`
	At          time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Channel is the pub/sub channel carrying events for one interview.
func Channel(interviewID string) string { return "interview:" + interviewID + ":events" }

type RedisPublisher struct {
	rdb redis.UniversalClient
}

func NewRedisPublisher(rdb redis.UniversalClient) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, Channel(ev.InterviewID), b).Err()
}

// Subscribe forwards raw JSON payloads for one interview until ctx ends or
// the returned stop func is called.
func (p *RedisPublisher) Subscribe(ctx context.Context, interviewID string) (<-chan string, func()) {
	ps := p.rdb.Subscribe(ctx, Channel(interviewID))
	out := make(chan string, 16)

	go func() {
		defer close(out)
		ch := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- m.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, func() { _ = ps.Close() }
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
