package rules

import (
	"testing"
)

// staticSource is a test double returning fixed content.
type staticSource struct {
	content string
	err     error
}

func (s *staticSource) Load() (string, error) { return s.content, s.err }
func (s *staticSource) Info() SourceInfo {
	return SourceInfo{SourceType: "Static", Path: "memory"}
}

func TestNewRule(t *testing.T) {
	src := &staticSource{content: "body"}

	tests := []struct {
		name    string
		id      string
		source  ContentSource
		wantErr bool
	}{
		{name: "valid rule", id: "go-style", source: src, wantErr: false},
		{name: "empty id", id: "", source: src, wantErr: true},
		{name: "whitespace id", id: "   ", source: src, wantErr: true},
		{name: "nil source", id: "go-style", source: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRule(tt.id, "desc", "", nil, "", false, tt.source)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewRule() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewRule_CleansTags(t *testing.T) {
	rule, err := NewRule("r1", "desc", "", []string{" go ", "", "style", "  "}, "", false, &staticSource{})
	if err != nil {
		t.Fatalf("NewRule() failed: %v", err)
	}

	want := []string{"go", "style"}
	if len(rule.Tags) != len(want) {
		t.Fatalf("Expected %d tags, got %d: %v", len(want), len(rule.Tags), rule.Tags)
	}
	for i, tag := range want {
		if rule.Tags[i] != tag {
			t.Errorf("Tag %d: expected %q, got %q", i, tag, rule.Tags[i])
		}
	}
}

func TestRule_HasTag(t *testing.T) {
	rule := &Rule{ID: "r1", Tags: []string{"Go", "testing"}}

	tests := []struct {
		tag  string
		want bool
	}{
		{"go", true},
		{"GO", true},
		{"Testing", true},
		{"python", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := rule.HasTag(tt.tag); got != tt.want {
			t.Errorf("HasTag(%q) = %v, want %v", tt.tag, got, tt.want)
		}
	}
}

func TestRule_HasAnyTag_HasAllTags(t *testing.T) {
	rule := &Rule{ID: "r1", Tags: []string{"go", "style", "lint"}}

	if !rule.HasAnyTag([]string{"python", "GO"}) {
		t.Error("HasAnyTag should match one of the given tags case-insensitively")
	}
	if rule.HasAnyTag([]string{"python", "rust"}) {
		t.Error("HasAnyTag should not match when no tag is present")
	}
	if !rule.HasAllTags([]string{"Style", "LINT"}) {
		t.Error("HasAllTags should match when every tag is present")
	}
	if rule.HasAllTags([]string{"style", "missing"}) {
		t.Error("HasAllTags should fail when one tag is absent")
	}
	if !rule.HasAllTags(nil) {
		t.Error("HasAllTags with no tags is vacuously true")
	}
}

func TestRule_MatchesLanguage(t *testing.T) {
	tests := []struct {
		name     string
		language string
		filter   string
		want     bool
	}{
		{name: "exact match", language: "go", filter: "go", want: true},
		{name: "case-insensitive match", language: "Go", filter: "gO", want: true},
		{name: "mismatch", language: "go", filter: "python", want: false},
		{name: "agnostic rule never matches", language: "", filter: "go", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := &Rule{ID: "r1", Language: tt.language}
			if got := rule.MatchesLanguage(tt.filter); got != tt.want {
				t.Errorf("MatchesLanguage(%q) = %v, want %v", tt.filter, got, tt.want)
			}
		})
	}
}

func TestRule_MatchesContext(t *testing.T) {
	general := &Rule{ID: "g"}
	scoped := &Rule{ID: "s", Context: "Proj"}

	if !general.MatchesContext("anything") {
		t.Error("General rule should match any context filter")
	}
	if !scoped.MatchesContext("proj") {
		t.Error("Scoped rule should match its own context case-insensitively")
	}
	if scoped.MatchesContext("Other") {
		t.Error("Scoped rule should not match a different context")
	}
}

func TestRule_LoadContent(t *testing.T) {
	rule := &Rule{ID: "r1", Source: &staticSource{content: "Always use gofmt."}}

	content, err := rule.LoadContent()
	if err != nil {
		t.Fatalf("LoadContent() failed: %v", err)
	}
	if content != "Always use gofmt." {
		t.Errorf("Expected content %q, got %q", "Always use gofmt.", content)
	}
}
