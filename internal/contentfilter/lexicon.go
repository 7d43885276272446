package contentfilter

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed lexicons.yaml
var lexiconData []byte

type lexiconFile struct {
	Lexicons []lexiconDef `yaml:"lexicons"`
}

type lexiconDef struct {
	Name     string   `yaml:"name"`
	Severe   []string `yaml:"severe"`
	Moderate []string `yaml:"moderate"`
	Mild     []string `yaml:"mild"`
	Phrases  []string `yaml:"phrases"`
}

// entry is one lexicon term with its literal and fuzzy matchers precompiled.
type entry struct {
	term    string
	literal *regexp.Regexp
	fuzzy   *regexp.Regexp
}

type tier struct {
	severity Severity
	entries  []entry
}

// tiers holds every loaded lexicon entry grouped by severity, ordered
// severe first so the first matching tier resolves the verdict.
var tiers []tier

func init() {
	var err error
	tiers, err = loadTiers(lexiconData)
	if err != nil {
		panic(fmt.Sprintf("contentfilter: bad embedded lexicons: %v", err))
	}
}

func loadTiers(raw []byte) ([]tier, error) {
	var file lexiconFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, err
	}
	if len(file.Lexicons) < 2 {
		return nil, fmt.Errorf("want at least two lexicons, got %d", len(file.Lexicons))
	}

	severe := tier{severity: SeveritySevere}
	moderate := tier{severity: SeverityModerate}
	mild := tier{severity: SeverityMild}

	for _, lex := range file.Lexicons {
		var err error
		if severe.entries, err = appendEntries(severe.entries, lex.Severe); err != nil {
			return nil, fmt.Errorf("lexicon %s: %w", lex.Name, err)
		}
		if moderate.entries, err = appendEntries(moderate.entries, lex.Moderate); err != nil {
			return nil, fmt.Errorf("lexicon %s: %w", lex.Name, err)
		}
		// Compound phrases carry moderate weight: they only flag in context.
		if moderate.entries, err = appendEntries(moderate.entries, lex.Phrases); err != nil {
			return nil, fmt.Errorf("lexicon %s: %w", lex.Name, err)
		}
		if mild.entries, err = appendEntries(mild.entries, lex.Mild); err != nil {
			return nil, fmt.Errorf("lexicon %s: %w", lex.Name, err)
		}
	}

	return []tier{severe, moderate, mild}, nil
}

func appendEntries(dst []entry, terms []string) ([]entry, error) {
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		literal, err := regexp.Compile(literalPattern(term))
		if err != nil {
			return nil, fmt.Errorf("term %q: %w", term, err)
		}
		fuzzy, err := regexp.Compile(flexiblePattern(term))
		if err != nil {
			return nil, fmt.Errorf("term %q: %w", term, err)
		}
		dst = append(dst, entry{term: term, literal: literal, fuzzy: fuzzy})
	}
	return dst, nil
}

// literalPattern matches the term as written, case-insensitively, allowing
// hyphen/underscore/whitespace between phrase words and an optional plural.
func literalPattern(term string) string {
	var b strings.Builder
	b.WriteString(`(?i)\b`)
	for _, r := range term {
		switch r {
		case ' ', '-':
			b.WriteString(`[\s\-_]*`)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString(`s?\b`)
	return b.String()
}

// flexiblePattern additionally tolerates common character substitutions
// (vowel look-alikes, digit leetspeak, q/k interchange) and optional
// hyphen/space/underscore insertion between characters.
func flexiblePattern(term string) string {
	var parts []string
	for _, r := range term {
		switch r {
		case 'a':
			parts = append(parts, `[aä@]`)
		case 'e':
			parts = append(parts, `[eē3]`)
		case 'i':
			parts = append(parts, `[iī1!]`)
		case 'o':
			parts = append(parts, `[oō0]`)
		case 'u':
			parts = append(parts, `[uū]`)
		case 'q', 'k':
			parts = append(parts, `[qk]`)
		case ' ', '-':
			continue
		default:
			parts = append(parts, regexp.QuoteMeta(string(r)))
		}
	}
	return `(?i)\b` + strings.Join(parts, `[\s\-_]*`) + `s?\b`
}
