package storage

import (
	"testing"

	"learninghouse/console/internal/config"
)

func TestResultKey(t *testing.T) {
	if got := ResultKey("darkness", "training", "2abc"); got != "darkness/training/2abc.json" {
		t.Fatalf("ResultKey = %q", got)
	}
	if got := ResultKey("a b", "prediction", "x"); got != "a%20b/prediction/x.json" {
		t.Fatalf("ResultKey = %q", got)
	}
}

func TestNewObjectStoreParsesSchemeFromEndpoint(t *testing.T) {
	s, err := NewObjectStore(config.StorageConfig{
		Endpoint:      "https://minio.local:9000",
		AccessKey:     "key",
		SecretKey:     "secret",
		BucketResults: "results",
	})
	if err != nil {
		t.Fatalf("NewObjectStore: %v", err)
	}
	if got := s.client.EndpointURL().Scheme; got != "https" {
		t.Fatalf("scheme = %q", got)
	}
}
