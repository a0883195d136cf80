package entities

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCurriculum(t *testing.T) {
	curriculum := DefaultCurriculum()

	if curriculum.Len() != 4 {
		t.Fatalf("Expected 4 phrases, got %d", curriculum.Len())
	}

	first, ok := curriculum.At(0)
	if !ok {
		t.Fatal("Expected phrase at index 0")
	}
	if first.SourceText == "" || first.TargetReference == "" {
		t.Error("Default phrases must have source and target text")
	}
}

func TestCurriculumAtBounds(t *testing.T) {
	curriculum := DefaultCurriculum()

	if _, ok := curriculum.At(-1); ok {
		t.Error("Expected no phrase at negative index")
	}
	if _, ok := curriculum.At(curriculum.Len()); ok {
		t.Error("Expected no phrase past the end")
	}
}

func TestNewCurriculumValidation(t *testing.T) {
	if _, err := NewCurriculum(nil); err == nil {
		t.Error("Empty curriculum should be rejected")
	}

	phrases := []Phrase{{SourceText: "hello"}}
	if _, err := NewCurriculum(phrases); err == nil {
		t.Error("Phrase without target reference should be rejected")
	}

	phrases = []Phrase{{SourceText: "hello", TargetReference: "مرحبا"}}
	curriculum, err := NewCurriculum(phrases)
	if err != nil {
		t.Fatalf("NewCurriculum() error = %v", err)
	}
	if curriculum.Len() != 1 {
		t.Errorf("Expected 1 phrase, got %d", curriculum.Len())
	}
}

func TestLoadCurriculum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curriculum.json")
	content := `[
		{"source_text": "שלום", "target_reference": "مرحبا", "transliteration": "Marhaba"},
		{"source_text": "תודה", "target_reference": "شكرا"}
	]`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	curriculum, err := LoadCurriculum(path)
	if err != nil {
		t.Fatalf("LoadCurriculum() error = %v", err)
	}
	if curriculum.Len() != 2 {
		t.Fatalf("Expected 2 phrases, got %d", curriculum.Len())
	}

	phrase, _ := curriculum.At(0)
	if phrase.Transliteration != "Marhaba" {
		t.Errorf("Expected transliteration Marhaba, got %q", phrase.Transliteration)
	}
}

func TestLoadCurriculumBadInput(t *testing.T) {
	if _, err := LoadCurriculum(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Missing file should be an error")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	if _, err := LoadCurriculum(path); err == nil {
		t.Error("Invalid JSON should be an error")
	}
}
