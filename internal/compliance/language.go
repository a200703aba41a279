package compliance

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"
)

// contextWindow is how many characters of surrounding text a finding carries
// on each side of the match.
const contextWindow = 50

// Finding is one prohibited word located in a document.
type Finding struct {
	Word    string `json:"word" yaml:"word"`
	Path    string `json:"path" yaml:"path"`
	Context string `json:"context" yaml:"context"`
}

// FileReport holds the findings for one scanned file.
type FileReport struct {
	File     string    `json:"file" yaml:"file"`
	Findings []Finding `json:"findings" yaml:"findings"`
	Error    string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// LanguageReport is the result of scanning a set of files.
type LanguageReport struct {
	ScannedAt     time.Time    `json:"scanned_at" yaml:"scanned_at"`
	Lists         []string     `json:"lists" yaml:"lists"`
	FilesScanned  int          `json:"files_scanned" yaml:"files_scanned"`
	TotalFindings int          `json:"total_findings" yaml:"total_findings"`
	Files         []FileReport `json:"files" yaml:"files"`
}

// LanguageScanner finds prohibited words in JSON documents.
type LanguageScanner struct {
	patterns []wordPattern
	lists    []string
}

type wordPattern struct {
	word string
	re   *regexp.Regexp
}

// NewLanguageScanner compiles the named word lists plus any extra words into
// case-insensitive word-boundary matchers.
func NewLanguageScanner(listNames []string, extra []string) (*LanguageScanner, error) {
	words, err := Words(listNames, extra)
	if err != nil {
		return nil, err
	}

	patterns := make([]wordPattern, 0, len(words))
	for _, word := range words {
		re, err := compileWordPattern(word)
		if err != nil {
			return nil, fmt.Errorf("failed to compile pattern for %q: %w", word, err)
		}
		patterns = append(patterns, wordPattern{word: word, re: re})
	}

	return &LanguageScanner{patterns: patterns, lists: listNames}, nil
}

// compileWordPattern builds a case-insensitive matcher with word boundaries.
// Boundaries only apply where the word starts or ends with a word character,
// so entries like "100%" still match.
func compileWordPattern(word string) (*regexp.Regexp, error) {
	quoted := regexp.QuoteMeta(word)

	prefix := ""
	if isWordChar(rune(word[0])) {
		prefix = `\b`
	}
	suffix := ""
	if isWordChar(rune(word[len(word)-1])) {
		suffix = `\b`
	}

	return regexp.Compile(`(?i)` + prefix + quoted + suffix)
}

func isWordChar(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// ScanText finds prohibited words in a single string. The path labels where
// the string came from.
func (s *LanguageScanner) ScanText(text, path string) []Finding {
	var findings []Finding
	for _, p := range s.patterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			findings = append(findings, Finding{
				Word:    p.word,
				Path:    path,
				Context: contextAround(text, loc[0], loc[1]),
			})
		}
	}
	return findings
}

// ScanDocument walks every string value in a parsed JSON document, recording
// dotted paths to each finding.
func (s *LanguageScanner) ScanDocument(doc any) []Finding {
	var findings []Finding
	s.walk(doc, "", &findings)
	return findings
}

func (s *LanguageScanner) walk(node any, path string, findings *[]Finding) {
	switch v := node.(type) {
	case string:
		*findings = append(*findings, s.ScanText(v, path)...)
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			childPath := k
			if path != "" {
				childPath = path + "." + k
			}
			s.walk(v[k], childPath, findings)
		}
	case []any:
		for i, item := range v {
			s.walk(item, fmt.Sprintf("%s[%d]", path, i), findings)
		}
	}
}

// ScanFiles scans each JSON file and assembles the full report. Unreadable
// or unparseable files are recorded per file, not fatal to the scan.
func (s *LanguageScanner) ScanFiles(paths []string) *LanguageReport {
	report := &LanguageReport{
		ScannedAt:    time.Now().UTC(),
		Lists:        s.lists,
		FilesScanned: len(paths),
	}

	for _, path := range paths {
		fr := FileReport{File: path}

		data, err := os.ReadFile(path)
		if err != nil {
			fr.Error = err.Error()
			report.Files = append(report.Files, fr)
			continue
		}

		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			fr.Error = fmt.Sprintf("not valid JSON: %v", err)
			report.Files = append(report.Files, fr)
			continue
		}

		fr.Findings = s.ScanDocument(doc)
		report.TotalFindings += len(fr.Findings)
		report.Files = append(report.Files, fr)
	}

	return report
}

// contextAround extracts up to contextWindow characters on each side of a
// match, with ellipses where text was cut.
func contextAround(text string, start, end int) string {
	from := start - contextWindow
	prefix := ""
	if from > 0 {
		prefix = "..."
	} else {
		from = 0
	}

	to := end + contextWindow
	suffix := ""
	if to < len(text) {
		suffix = "..."
	} else {
		to = len(text)
	}

	return prefix + strings.TrimSpace(text[from:to]) + suffix
}
