package retrieval

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var defaultVocabularyYAML []byte

// VocabularySpec is the on-disk form of the institutional vocabulary.
type VocabularySpec struct {
	BroadPatterns    []string         `yaml:"broad_patterns"`
	SpecificPatterns []string         `yaml:"specific_patterns"`
	PriorityKeywords []string         `yaml:"priority_keywords"`
	Expansions       []ExpansionEntry `yaml:"expansions"`
	Topics           []TopicEntry     `yaml:"topics"`
	StopWords        []string         `yaml:"stop_words"`
}

type ExpansionEntry struct {
	Key    string `yaml:"key"`
	Phrase string `yaml:"phrase"`
}

type TopicEntry struct {
	Name       string   `yaml:"name"`
	Department string   `yaml:"department"`
	Keywords   []string `yaml:"keywords"`
}

// Vocabulary is the compiled, read-only form of VocabularySpec. It is safe for
// concurrent use and shared by every retrieval component.
type Vocabulary struct {
	broad      []*regexp.Regexp
	specific   []*regexp.Regexp
	priority   []string
	expansions []ExpansionEntry
	topics     []TopicEntry
	stopWords  map[string]struct{}
}

// DefaultVocabulary returns the embedded vocabulary.
func DefaultVocabulary() (*Vocabulary, error) {
	return ParseVocabulary(defaultVocabularyYAML)
}

// LoadVocabulary reads a YAML vocabulary file. An empty path selects the embedded default.
func LoadVocabulary(path string) (*Vocabulary, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultVocabulary()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary %s: %w", path, err)
	}
	return ParseVocabulary(data)
}

func ParseVocabulary(data []byte) (*Vocabulary, error) {
	var spec VocabularySpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("decode vocabulary: %w", err)
	}
	return NewVocabulary(spec)
}

// NewVocabulary compiles patterns and normalises every term list.
func NewVocabulary(spec VocabularySpec) (*Vocabulary, error) {
	broad, err := compilePatterns(spec.BroadPatterns)
	if err != nil {
		return nil, fmt.Errorf("broad patterns: %w", err)
	}
	specific, err := compilePatterns(spec.SpecificPatterns)
	if err != nil {
		return nil, fmt.Errorf("specific patterns: %w", err)
	}

	v := &Vocabulary{
		broad:     broad,
		specific:  specific,
		priority:  normalizeTerms(spec.PriorityKeywords),
		stopWords: make(map[string]struct{}, len(spec.StopWords)),
	}
	for _, word := range spec.StopWords {
		if folded := Fold(word); folded != "" {
			v.stopWords[folded] = struct{}{}
		}
	}
	for _, entry := range spec.Expansions {
		key := Fold(entry.Key)
		phrase := strings.TrimSpace(entry.Phrase)
		if key == "" || phrase == "" {
			return nil, fmt.Errorf("expansion entry %q: key and phrase are required", entry.Key)
		}
		v.expansions = append(v.expansions, ExpansionEntry{Key: key, Phrase: phrase})
	}
	for _, topic := range spec.Topics {
		name := strings.TrimSpace(topic.Name)
		if name == "" {
			return nil, fmt.Errorf("topic without name")
		}
		v.topics = append(v.topics, TopicEntry{
			Name:       name,
			Department: strings.TrimSpace(topic.Department),
			Keywords:   normalizeTerms(topic.Keywords),
		})
	}
	return v, nil
}

// PriorityTerms returns the normalised priority keywords in configured order.
func (v *Vocabulary) PriorityTerms() []string {
	return append([]string(nil), v.priority...)
}

// ExpansionKeys returns the normalised expansion table keys in configured order.
func (v *Vocabulary) ExpansionKeys() []string {
	keys := make([]string, 0, len(v.expansions))
	for _, entry := range v.expansions {
		keys = append(keys, entry.Key)
	}
	return keys
}

func (v *Vocabulary) Topics() []TopicEntry {
	out := make([]TopicEntry, len(v.topics))
	copy(out, v.topics)
	return out
}

func (v *Vocabulary) isStopWord(token string) bool {
	_, ok := v.stopWords[token]
	return ok
}

// priorityIn lists the priority terms contained in already-normalised text.
func (v *Vocabulary) priorityIn(normalized string) []string {
	var out []string
	for _, term := range v.priority {
		if strings.Contains(normalized, term) {
			out = append(out, term)
		}
	}
	return out
}

// compilePatterns anchors each fragment at letter/digit boundaries. RE2's \b is
// ASCII-only and would split words around accented letters.
func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		re, err := regexp.Compile(`(?:^|[^\p{L}\p{N}])(?:` + p + `)(?:$|[^\p{L}\p{N}])`)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		folded := strings.Join(strings.Fields(Fold(term)), " ")
		if folded == "" {
			continue
		}
		if _, ok := seen[folded]; ok {
			continue
		}
		seen[folded] = struct{}{}
		out = append(out, folded)
	}
	return out
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
