package config

import "testing"

func TestLoadPipelineDefaults(t *testing.T) {
	t.Setenv("GRADE_HIGH_THRESHOLD", "")
	t.Setenv("GRADE_LOW_THRESHOLD", "")
	t.Setenv("ACTION_MIN_CORRECT", "")
	t.Setenv("MODEL_POOL", "")
	t.Setenv("GATE_MAX_REQUESTS", "")

	cfg := Load()
	if cfg.GradeHighThreshold != 0.5 {
		t.Fatalf("expected default high threshold 0.5, got %f", cfg.GradeHighThreshold)
	}
	if cfg.GradeLowThreshold != 0.2 {
		t.Fatalf("expected default low threshold 0.2, got %f", cfg.GradeLowThreshold)
	}
	if cfg.ActionMinCorrect != 2 {
		t.Fatalf("expected default min correct 2, got %d", cfg.ActionMinCorrect)
	}
	if len(cfg.ModelPool) != 2 || cfg.ModelPool[0] != "llama-3.3-70b-versatile" {
		t.Fatalf("unexpected default model pool: %v", cfg.ModelPool)
	}
	if cfg.GateMaxRequests != 10 || cfg.GateWindowSeconds != 60 {
		t.Fatalf("unexpected gate defaults: %d req / %ds", cfg.GateMaxRequests, cfg.GateWindowSeconds)
	}
	if cfg.MergeMaxChunks != 6 || cfg.MergeMaxPerURL != 3 || cfg.TopKPerQuery != 4 {
		t.Fatalf("unexpected retrieval defaults: %d/%d/%d",
			cfg.MergeMaxChunks, cfg.MergeMaxPerURL, cfg.TopKPerQuery)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("GRADE_HIGH_THRESHOLD", "0.7")
	t.Setenv("ACTION_MIN_CORRECT", "3")
	t.Setenv("MODEL_POOL", " model-x , model-y ,")
	t.Setenv("MODEL_COOLDOWN_SECONDS", "120")
	t.Setenv("DECOMPOSE_ENABLED", "true")
	t.Setenv("RESPONSE_CACHE_ENABLED", "false")

	cfg := Load()
	if cfg.GradeHighThreshold != 0.7 {
		t.Fatalf("expected threshold override, got %f", cfg.GradeHighThreshold)
	}
	if cfg.ActionMinCorrect != 3 {
		t.Fatalf("expected min correct 3, got %d", cfg.ActionMinCorrect)
	}
	if len(cfg.ModelPool) != 2 || cfg.ModelPool[0] != "model-x" || cfg.ModelPool[1] != "model-y" {
		t.Fatalf("model pool must be trimmed and empty entries dropped: %v", cfg.ModelPool)
	}
	if cfg.ModelCooldownSeconds != 120 {
		t.Fatalf("expected cooldown 120, got %d", cfg.ModelCooldownSeconds)
	}
	if !cfg.DecomposeEnabled || cfg.ResponseCacheEnabled {
		t.Fatalf("bool overrides not applied: decompose=%v cache=%v",
			cfg.DecomposeEnabled, cfg.ResponseCacheEnabled)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("GRADE_HIGH_THRESHOLD", "not-a-number")
	t.Setenv("GATE_MAX_REQUESTS", "ten")
	t.Setenv("DECOMPOSE_ENABLED", "maybe")

	cfg := Load()
	if cfg.GradeHighThreshold != 0.5 {
		t.Fatalf("malformed float must fall back, got %f", cfg.GradeHighThreshold)
	}
	if cfg.GateMaxRequests != 10 {
		t.Fatalf("malformed int must fall back, got %d", cfg.GateMaxRequests)
	}
	if cfg.DecomposeEnabled {
		t.Fatalf("malformed bool must fall back")
	}
}
