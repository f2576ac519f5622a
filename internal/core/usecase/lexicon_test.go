package usecase

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultLexiconCategories(t *testing.T) {
	lex := DefaultLexicon()
	for _, category := range []string{
		CategoryEmotional,
		CategoryRelationship,
		CategoryTemporal,
		CategoryFactual,
		CategoryConversational,
	} {
		if len(lex[category]) == 0 {
			t.Fatalf("category %s is empty", category)
		}
	}
}

func TestLoadLexiconEmptyPathReturnsDefaults(t *testing.T) {
	lex, err := LoadLexicon("")
	if err != nil {
		t.Fatalf("LoadLexicon: %v", err)
	}
	if len(lex[CategoryTemporal]) != len(DefaultLexicon()[CategoryTemporal]) {
		t.Fatal("empty path must return the built-in lists")
	}
}

func TestLoadLexiconMergesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	content := "emotional_keywords:\n  - happy\n  - happy\n  - delighted\nrelationship_keywords: []\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	lex, err := LoadLexicon(path)
	if err != nil {
		t.Fatalf("LoadLexicon: %v", err)
	}

	if got := lex[CategoryEmotional]; len(got) != 2 || got[0] != "happy" || got[1] != "delighted" {
		t.Fatalf("emotional = %v, want deduped override", got)
	}
	// Empty override lists keep the defaults.
	if len(lex[CategoryRelationship]) != len(DefaultLexicon()[CategoryRelationship]) {
		t.Fatal("empty override must not erase the default list")
	}
	if len(lex[CategoryTemporal]) == 0 {
		t.Fatal("untouched categories keep their defaults")
	}
}

func TestLoadLexiconBadFile(t *testing.T) {
	if _, err := LoadLexicon(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("missing file must error")
	}

	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte(": not yaml ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadLexicon(path); err == nil {
		t.Fatal("malformed yaml must error")
	}
}

func TestLexiconCategoriesStableOrder(t *testing.T) {
	lex := DefaultLexicon()
	names := lex.Categories()
	if len(names) != 5 {
		t.Fatalf("Categories() = %v", names)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("Categories() not sorted: %v", names)
		}
	}
}
