package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"learninghouse/console/internal/client"
	"learninghouse/console/internal/models"
	"learninghouse/console/internal/queue"
)

type fakeBrains struct {
	info       models.BrainInfo
	prediction models.PredictionResult
	err        error
	retrained  []string
}

func (f *fakeBrains) RetrainBrain(_ context.Context, name string) (models.BrainInfo, error) {
	f.retrained = append(f.retrained, name)
	return f.info, f.err
}

func (f *fakeBrains) Predict(_ context.Context, name string, _ models.SensorsData) (models.PredictionResult, error) {
	return f.prediction, f.err
}

type memoryArchive map[string]any

func (a memoryArchive) PutJSON(_ context.Context, key string, v any) error {
	a[key] = v
	return nil
}

type memoryRecorder []models.JobRun

func (r *memoryRecorder) Record(_ context.Context, run models.JobRun) error {
	*r = append(*r, run)
	return nil
}

func message(t *testing.T, job models.Job, secret string) redis.XMessage {
	t.Helper()
	values, err := queue.EncodeJob(job, secret)
	if err != nil {
		t.Fatalf("EncodeJob: %v", err)
	}
	return redis.XMessage{ID: "1-0", Values: values}
}

func newJob(jobType models.JobType) models.Job {
	return models.Job{ID: "job-1", Type: jobType, Brain: "darkness", EnqueuedAt: time.Now()}
}

func TestTrainingJobIsArchivedAndRecorded(t *testing.T) {
	brains := &fakeBrains{info: models.BrainInfo{Name: "darkness", Score: 0.93, TrainingDataSize: 120}}
	archive := memoryArchive{}
	var runs memoryRecorder
	p := NewProcessor(zerolog.Nop(), "secret", brains, WithArchive(archive), WithRecorder(&runs))

	if err := p.Handle(context.Background(), message(t, newJob(models.JobTypeTraining), "secret")); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(brains.retrained) != 1 || brains.retrained[0] != "darkness" {
		t.Fatalf("retrained = %v", brains.retrained)
	}
	if _, ok := archive["darkness/training/job-1.json"]; !ok {
		t.Fatalf("archive = %v", archive)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d", len(runs))
	}
	run := runs[0]
	if run.Status != models.JobStatusSucceeded || run.Score == nil || *run.Score != 0.93 || *run.DataSize != 120 {
		t.Fatalf("run = %+v", run)
	}
	if run.ArchiveKey != "darkness/training/job-1.json" {
		t.Fatalf("archive key = %q", run.ArchiveKey)
	}
}

func TestRejectedJobIsRecordedNotRetried(t *testing.T) {
	brains := &fakeBrains{err: &client.APIError{Status: 404, Key: "NO_BRAIN", Message: "missing"}}
	var runs memoryRecorder
	p := NewProcessor(zerolog.Nop(), "secret", brains, WithRecorder(&runs))

	if err := p.Handle(context.Background(), message(t, newJob(models.JobTypePrediction), "secret")); err != nil {
		t.Fatalf("Handle = %v, want nil for a permanent failure", err)
	}
	if len(runs) != 1 || runs[0].Status != models.JobStatusFailed || runs[0].Error == "" {
		t.Fatalf("runs = %+v", runs)
	}
}

func TestTransientFailureIsRetried(t *testing.T) {
	brains := &fakeBrains{err: &client.APIError{Status: 0, Key: client.KeyClientSide, Message: "down"}}
	p := NewProcessor(zerolog.Nop(), "secret", brains)

	if err := p.Handle(context.Background(), message(t, newJob(models.JobTypeTraining), "secret")); err == nil {
		t.Fatal("Handle = nil, want an error so the message stays pending")
	}
}

func TestForgedJobIsRejected(t *testing.T) {
	brains := &fakeBrains{}
	p := NewProcessor(zerolog.Nop(), "secret", brains)

	err := p.Handle(context.Background(), message(t, newJob(models.JobTypeTraining), "forged"))
	if !errors.Is(err, queue.ErrInvalidSignature) {
		t.Fatalf("err = %v", err)
	}
	if len(brains.retrained) != 0 {
		t.Fatal("forged job must not run")
	}
}

func TestUnknownJobTypeIsRecordedNotRetried(t *testing.T) {
	brains := &fakeBrains{}
	var runs memoryRecorder
	p := NewProcessor(zerolog.Nop(), "secret", brains, WithRecorder(&runs))

	if err := p.Handle(context.Background(), message(t, newJob("retrain-all"), "secret")); err != nil {
		t.Fatalf("Handle = %v, want nil so the message is acked", err)
	}
	if len(runs) != 1 || runs[0].Status != models.JobStatusFailed {
		t.Fatalf("runs = %+v", runs)
	}
	if len(brains.retrained) != 0 {
		t.Fatal("unknown job must not run")
	}
}

func TestTransientOnlyForServiceFailures(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{&client.APIError{Status: 0, Key: client.KeyClientSide}, true},
		{&client.APIError{Status: 502, Key: "bad_gateway"}, true},
		{&client.APIError{Status: 422, Key: "invalid"}, false},
		{errors.New("decode response"), false},
		{models.ErrSessionExpired, false},
	}
	for _, tc := range cases {
		if got := isTransient(tc.err); got != tc.want {
			t.Fatalf("isTransient(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
