package queue

import (
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"learninghouse/console/internal/models"
)

func testJob() models.Job {
	return models.Job{
		ID:          "2fHkSN4Ym0iSOQvMbZqnpJjCqzJ",
		Type:        models.JobTypePrediction,
		Brain:       "darkness",
		SensorsData: models.SensorsData{"azimuth": 321.4, "light_state": false},
		RequestedBy: "trainer",
		EnqueuedAt:  time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestEncodeDecodeJob(t *testing.T) {
	values, err := EncodeJob(testJob(), "secret")
	if err != nil {
		t.Fatalf("EncodeJob: %v", err)
	}

	job, err := DecodeJob(redis.XMessage{ID: "1-0", Values: values}, "secret")
	if err != nil {
		t.Fatalf("DecodeJob: %v", err)
	}
	if job.ID != testJob().ID || job.Brain != "darkness" || job.Type != models.JobTypePrediction {
		t.Fatalf("job = %+v", job)
	}
	if job.SensorsData["light_state"] != false {
		t.Fatalf("sensors data = %v", job.SensorsData)
	}
}

func TestDecodeJobRejectsWrongSecret(t *testing.T) {
	values, _ := EncodeJob(testJob(), "secret")
	if _, err := DecodeJob(redis.XMessage{Values: values}, "other"); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("err = %v", err)
	}
}

func TestDecodeJobRejectsTamperedFields(t *testing.T) {
	values, _ := EncodeJob(testJob(), "secret")
	values["brain"] = "other"
	if _, err := DecodeJob(redis.XMessage{Values: values}, "secret"); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("err = %v", err)
	}
}

func TestDecodeJobRejectsEmptyMessage(t *testing.T) {
	if _, err := DecodeJob(redis.XMessage{Values: map[string]any{}}, "secret"); !errors.Is(err, ErrMalformedMessage) {
		t.Fatalf("err = %v", err)
	}
}
