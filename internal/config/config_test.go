package config

import "testing"

func TestLoadClassifierDefaults(t *testing.T) {
	t.Setenv("SEMANTIC_THRESHOLD", "")
	t.Setenv("EMOTION_INTENSITY_THRESHOLD", "")
	t.Setenv("RETRIEVAL_TOP_K", "")
	t.Setenv("FUSION_RRF_K", "")
	t.Setenv("QDRANT_CONTENT_COLLECTION", "")

	cfg := Load()
	if cfg.SemanticThreshold != 0.65 {
		t.Fatalf("expected default semantic threshold 0.65, got %v", cfg.SemanticThreshold)
	}
	if cfg.EmotionIntensityThreshold != 0.3 {
		t.Fatalf("expected default emotion intensity threshold 0.3, got %v", cfg.EmotionIntensityThreshold)
	}
	if cfg.RetrievalTopK != 5 {
		t.Fatalf("expected default retrieval top k 5, got %d", cfg.RetrievalTopK)
	}
	if cfg.FusionRRFK != 60 {
		t.Fatalf("expected default fusion rrf k 60, got %d", cfg.FusionRRFK)
	}
	if cfg.QdrantContentCollection != "memory_content" {
		t.Fatalf("expected default content collection memory_content, got %q", cfg.QdrantContentCollection)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("SEMANTIC_THRESHOLD", "0.7")
	t.Setenv("RETRIEVAL_TOP_K", "8")
	t.Setenv("RATE_LIMIT_RPS", "25.5")
	t.Setenv("NATS_SUBJECT", "conversations.custom")

	cfg := Load()
	if cfg.SemanticThreshold != 0.7 {
		t.Fatalf("expected semantic threshold override 0.7, got %v", cfg.SemanticThreshold)
	}
	if cfg.RetrievalTopK != 8 {
		t.Fatalf("expected retrieval top k 8, got %d", cfg.RetrievalTopK)
	}
	if cfg.RateLimitRPS != 25.5 {
		t.Fatalf("expected rate limit rps 25.5, got %v", cfg.RateLimitRPS)
	}
	if cfg.NATSSubject != "conversations.custom" {
		t.Fatalf("expected nats subject override, got %q", cfg.NATSSubject)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("SEMANTIC_THRESHOLD", "not-a-number")
	t.Setenv("RETRIEVAL_TOP_K", "many")

	cfg := Load()
	if cfg.SemanticThreshold != 0.65 {
		t.Fatalf("expected fallback semantic threshold 0.65, got %v", cfg.SemanticThreshold)
	}
	if cfg.RetrievalTopK != 5 {
		t.Fatalf("expected fallback retrieval top k 5, got %d", cfg.RetrievalTopK)
	}
}
