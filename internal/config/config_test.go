package config

import "testing"

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 0},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
	}
	cfg.ApplyDefaults()

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDatabaseAddrs(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{},
		},
	}
	cfg.ApplyDefaults()

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_NegativeWeight(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Retrieval: RetrievalConfig{
			KeywordWeight: -0.5,
			VectorWeight:  1.5,
		},
	}
	cfg.ApplyDefaults()

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for negative weight")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 10 {
		t.Errorf("expected WriteTimeoutSec=10, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Retrieval.TopK != 10 {
		t.Errorf("expected TopK=10, got %d", cfg.Retrieval.TopK)
	}
	if cfg.Retrieval.KeywordWeight != 0.5 || cfg.Retrieval.VectorWeight != 0.5 {
		t.Errorf("expected balanced default weights, got %f/%f",
			cfg.Retrieval.KeywordWeight, cfg.Retrieval.VectorWeight)
	}
	if cfg.Retrieval.CollectionTimeoutSec != 2 {
		t.Errorf("expected CollectionTimeoutSec=2, got %d", cfg.Retrieval.CollectionTimeoutSec)
	}
	if cfg.Retrieval.MaxAttempts != 3 {
		t.Errorf("expected MaxAttempts=3, got %d", cfg.Retrieval.MaxAttempts)
	}
	if cfg.Session.HistorySize != 10 {
		t.Errorf("expected HistorySize=10, got %d", cfg.Session.HistorySize)
	}
	if cfg.Session.IdleTTLMin != 30 {
		t.Errorf("expected IdleTTLMin=30, got %d", cfg.Session.IdleTTLMin)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database: DatabaseConfig{ReadinessTimeout: 15},
		Retrieval: RetrievalConfig{
			TopK:          25,
			KeywordWeight: 0.7,
			VectorWeight:  0.3,
		},
		Session: SessionConfig{HistorySize: 4, IdleTTLMin: 5},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Retrieval.TopK != 25 {
		t.Errorf("expected TopK=25, got %d", cfg.Retrieval.TopK)
	}
	if cfg.Retrieval.KeywordWeight != 0.7 {
		t.Errorf("expected KeywordWeight=0.7, got %f", cfg.Retrieval.KeywordWeight)
	}
	if cfg.Session.HistorySize != 4 {
		t.Errorf("expected HistorySize=4, got %d", cfg.Session.HistorySize)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("PS_TEST_KEY", "sk-abc")

	in := []byte("api_key: ${PS_TEST_KEY}\nbase_url: ${PS_TEST_URL:-https://api.openai.com/v1}\n")
	out := string(expandEnvVars(in))

	if out != "api_key: sk-abc\nbase_url: https://api.openai.com/v1\n" {
		t.Errorf("unexpected expansion: %q", out)
	}
}
