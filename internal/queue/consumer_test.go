package queue

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"learninghouse/console/internal/config"
)

type fakeStream struct {
	pending []redis.XPendingExt
	claimed map[string]redis.XMessage

	acked      []string
	claimCalls int
}

func (f *fakeStream) XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd {
	return redis.NewStatusResult("", errors.New("BUSYGROUP Consumer Group name already exists"))
}

func (f *fakeStream) XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd {
	return redis.NewXStreamSliceCmdResult(nil, redis.Nil)
}

func (f *fakeStream) XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd {
	f.acked = append(f.acked, ids...)
	return redis.NewIntResult(int64(len(ids)), nil)
}

func (f *fakeStream) XPendingExt(ctx context.Context, a *redis.XPendingExtArgs) *redis.XPendingExtCmd {
	cmd := redis.NewXPendingExtCmd(ctx)
	cmd.SetVal(f.pending)
	return cmd
}

func (f *fakeStream) XClaim(ctx context.Context, a *redis.XClaimArgs) *redis.XMessageSliceCmd {
	f.claimCalls++
	var msgs []redis.XMessage
	for _, id := range a.Messages {
		if msg, ok := f.claimed[id]; ok {
			msgs = append(msgs, msg)
		}
	}
	return redis.NewXMessageSliceCmdResult(msgs, nil)
}

// handlerFunc answers with a fixed error per message id.
type handlerFunc func(msg redis.XMessage) error

func (h handlerFunc) Handle(_ context.Context, msg redis.XMessage) error {
	return h(msg)
}

func newTestConsumer(stream *fakeStream, handler MessageHandler) *Consumer {
	c := NewConsumer(nil, config.QueueConfig{Stream: "jobs", Group: "workers", Consumer: "w1", ClaimInterval: time.Minute}, zerolog.Nop(), handler)
	c.client = stream
	return c
}

func TestShouldAck(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, true},
		{ErrInvalidSignature, true},
		{fmt.Errorf("%w: unknown job type", ErrMalformedMessage), true},
		{errors.New("service down"), false},
	}
	for _, tc := range cases {
		if got := shouldAck(tc.err); got != tc.want {
			t.Fatalf("shouldAck(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestProcessAcksOnlyFinishedMessages(t *testing.T) {
	stream := &fakeStream{}
	failures := map[string]error{
		"1-0": nil,
		"2-0": ErrInvalidSignature,
		"3-0": errors.New("service down"),
		"4-0": ErrMalformedMessage,
	}
	c := newTestConsumer(stream, handlerFunc(func(msg redis.XMessage) error { return failures[msg.ID] }))

	for _, id := range []string{"1-0", "2-0", "3-0", "4-0"} {
		c.process(context.Background(), redis.XMessage{ID: id})
	}

	want := []string{"1-0", "2-0", "4-0"}
	if fmt.Sprint(stream.acked) != fmt.Sprint(want) {
		t.Fatalf("acked = %v, want %v", stream.acked, want)
	}
}

func TestClaimStalledRetriesIdleMessages(t *testing.T) {
	stream := &fakeStream{
		pending: []redis.XPendingExt{
			{ID: "1-0", Idle: 2 * time.Minute},
			{ID: "2-0", Idle: time.Second},
		},
		claimed: map[string]redis.XMessage{
			"1-0": {ID: "1-0"},
			"2-0": {ID: "2-0"},
		},
	}
	var handled []string
	c := newTestConsumer(stream, handlerFunc(func(msg redis.XMessage) error {
		handled = append(handled, msg.ID)
		return nil
	}))

	if err := c.claimStalled(context.Background()); err != nil {
		t.Fatalf("claimStalled: %v", err)
	}
	if stream.claimCalls != 1 {
		t.Fatalf("claim calls = %d, want only the idle entry", stream.claimCalls)
	}
	if fmt.Sprint(handled) != "[1-0]" || fmt.Sprint(stream.acked) != "[1-0]" {
		t.Fatalf("handled = %v acked = %v", handled, stream.acked)
	}
}

func TestEnsureGroupIgnoresExistingGroup(t *testing.T) {
	c := newTestConsumer(&fakeStream{}, handlerFunc(func(redis.XMessage) error { return nil }))
	if err := c.EnsureGroup(context.Background()); err != nil {
		t.Fatalf("EnsureGroup: %v", err)
	}
}
