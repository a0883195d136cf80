package entities

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Phrase is a single practice item: the sentence shown to the learner and
// the reference translation it is scored against. Immutable at runtime.
type Phrase struct {
	SourceText      string `json:"source_text"`
	TargetReference string `json:"target_reference"`
	Transliteration string `json:"transliteration,omitempty"`
	Hint            string `json:"hint,omitempty"`
}

// Curriculum is the ordered, read-only list of phrases a learner progresses
// through. A phrase's identity is its position in the sequence.
type Curriculum struct {
	phrases []Phrase
}

// DefaultCurriculum returns the built-in Hebrew to Levantine Arabic set.
func DefaultCurriculum() *Curriculum {
	return &Curriculum{phrases: []Phrase{
		{SourceText: "אני רוצה קפה", TargetReference: "בדי קהוה", Transliteration: "Bidi Kahwa"},
		{SourceText: "איפה השירותים?", TargetReference: "וין אל חמאם?", Transliteration: "Wein al hammam?"},
		{SourceText: "כמה זה עולה?", TargetReference: "קדיש חקו?", Transliteration: "Qaddesh haqqo?"},
		{SourceText: "אני לא מבין", TargetReference: "מש פאהם", Transliteration: "Mish fahem"},
	}}
}

// NewCurriculum builds a curriculum from an explicit phrase list.
func NewCurriculum(phrases []Phrase) (*Curriculum, error) {
	if len(phrases) == 0 {
		return nil, errors.New("curriculum requires at least one phrase")
	}
	for i, p := range phrases {
		if p.SourceText == "" || p.TargetReference == "" {
			return nil, fmt.Errorf("phrase %d: source_text and target_reference are required", i)
		}
	}
	cp := make([]Phrase, len(phrases))
	copy(cp, phrases)
	return &Curriculum{phrases: cp}, nil
}

// LoadCurriculum reads a JSON array of phrases from path.
func LoadCurriculum(path string) (*Curriculum, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curriculum file: %w", err)
	}
	var phrases []Phrase
	if err := json.Unmarshal(data, &phrases); err != nil {
		return nil, fmt.Errorf("failed to parse curriculum file: %w", err)
	}
	return NewCurriculum(phrases)
}

// Len returns the number of phrases.
func (c *Curriculum) Len() int {
	return len(c.phrases)
}

// At returns the phrase at the given ordinal and whether it exists.
func (c *Curriculum) At(index int) (Phrase, bool) {
	if index < 0 || index >= len(c.phrases) {
		return Phrase{}, false
	}
	return c.phrases[index], true
}
