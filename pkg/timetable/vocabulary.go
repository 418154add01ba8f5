package timetable

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Subject maps a lower-case phrase found in OCR text to its display label.
type Subject struct {
	Phrase string `yaml:"phrase"`
	Label  string `yaml:"label"`
}

// Vocabulary is checked in order and the first contained phrase wins, so a
// phrase must come before any shorter phrase it contains.
type Vocabulary []Subject

// DefaultVocabulary is the subject list of the reference timetable.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		{Phrase: "computer vision", Label: "computer vision"},
		{Phrase: "computer networks", Label: "computer networks"},
		{Phrase: "technical writing", Label: "technical writing"},
		{Phrase: "artificial intelligence lab", Label: "artificial intelligence lab"},
		{Phrase: "artificial intelligence", Label: "artificial intelligence"},
		{Phrase: "mobile application development", Label: "mobile application development"},
		{Phrase: "technical", Label: "technical"},
	}
}

// LoadVocabulary reads a YAML list of {phrase, label}. A missing label
// defaults to the phrase.
func LoadVocabulary(path string) (Vocabulary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Field: "vocabulary", Err: errors.Wrapf(err, "read %s", path)}
	}
	var doc struct {
		Subjects Vocabulary `yaml:"subjects"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, &ConfigError{Field: "vocabulary", Err: errors.Wrapf(err, "decode %s", path)}
	}
	for i := range doc.Subjects {
		if doc.Subjects[i].Label == "" {
			doc.Subjects[i].Label = doc.Subjects[i].Phrase
		}
	}
	if err := doc.Subjects.Validate(); err != nil {
		return nil, err
	}
	return doc.Subjects, nil
}

// Validate rejects empty, non lower-case, repeated or unreachable phrases.
// A phrase is unreachable when an earlier phrase is a substring of it.
func (v Vocabulary) Validate() error {
	if len(v) == 0 {
		return &ConfigError{Field: "vocabulary", Err: errors.New("empty")}
	}
	for i, s := range v {
		if strings.TrimSpace(s.Phrase) == "" {
			return &ConfigError{Field: "vocabulary", Err: errors.Errorf("entry %d has no phrase", i)}
		}
		if s.Phrase != strings.ToLower(strings.TrimSpace(s.Phrase)) {
			return &ConfigError{Field: "vocabulary", Err: errors.Errorf("phrase %q must be trimmed lower-case", s.Phrase)}
		}
		for _, earlier := range v[:i] {
			if earlier.Phrase == s.Phrase {
				return &ConfigError{Field: "vocabulary", Err: errors.Errorf("phrase %q repeated", s.Phrase)}
			}
			if strings.Contains(s.Phrase, earlier.Phrase) {
				return &ConfigError{Field: "vocabulary", Err: errors.Errorf("phrase %q is masked by earlier %q", s.Phrase, earlier.Phrase)}
			}
		}
	}
	return nil
}

// Match returns the label of the first phrase contained in text.
func (v Vocabulary) Match(text string) (string, bool) {
	for _, s := range v {
		if strings.Contains(text, s.Phrase) {
			return s.Label, true
		}
	}
	return "", false
}
