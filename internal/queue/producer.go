package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"learninghouse/console/internal/config"
	"learninghouse/console/internal/ids"
	"learninghouse/console/internal/models"
	"learninghouse/console/internal/security"
)

var (
	ErrInvalidSignature = errors.New("job signature mismatch")
	ErrMalformedMessage = errors.New("malformed job message")
)

// Producer appends signed brain jobs to the job stream.
type Producer struct {
	client *redis.Client
	stream string
	secret string
	now    func() time.Time
}

func NewProducer(client *redis.Client, cfg config.QueueConfig) *Producer {
	return &Producer{
		client: client,
		stream: cfg.Stream,
		secret: cfg.SigningSecret,
		now:    time.Now,
	}
}

func (p *Producer) Enqueue(ctx context.Context, jobType models.JobType, brain string, data models.SensorsData, requestedBy string) (models.Job, error) {
	if !jobType.Valid() {
		return models.Job{}, fmt.Errorf("unknown job type %q", jobType)
	}

	job := models.Job{
		ID:          ids.New(),
		Type:        jobType,
		Brain:       brain,
		SensorsData: data,
		RequestedBy: requestedBy,
		EnqueuedAt:  p.now().UTC(),
	}

	values, err := EncodeJob(job, p.secret)
	if err != nil {
		return models.Job{}, err
	}

	if _, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: values,
	}).Result(); err != nil {
		return models.Job{}, fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return job, nil
}

// EncodeJob builds the stream fields of a job.
func EncodeJob(job models.Job, secret string) (map[string]any, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("encode job: %w", err)
	}
	return map[string]any{
		"id":        job.ID,
		"type":      string(job.Type),
		"brain":     job.Brain,
		"payload":   string(payload),
		"signature": security.ComputeSignature(secret, job.ID, string(job.Type), job.Brain, payload),
	}, nil
}

// DecodeJob verifies and decodes a stream message written by EncodeJob.
func DecodeJob(msg redis.XMessage, secret string) (models.Job, error) {
	field := func(name string) string {
		value, _ := msg.Values[name].(string)
		return value
	}

	id, jobType, brain, payload := field("id"), field("type"), field("brain"), field("payload")
	if id == "" || payload == "" {
		return models.Job{}, ErrMalformedMessage
	}
	if !security.ValidateSignature(secret, field("signature"), id, jobType, brain, []byte(payload)) {
		return models.Job{}, ErrInvalidSignature
	}

	var job models.Job
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		return models.Job{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if job.ID != id || string(job.Type) != jobType || job.Brain != brain {
		return models.Job{}, ErrInvalidSignature
	}
	return job, nil
}
