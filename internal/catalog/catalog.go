// Package catalog lists and filters the operations of a parsed document.
package catalog

import (
	"strings"

	"github.com/mark3labs/swagger2ts/internal/spec"
)

// OperationSummary is the search view of one operation.
type OperationSummary struct {
	Method    string   `json:"method"`
	Path      string   `json:"path"`
	Summary   string   `json:"summary,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Namespace string   `json:"namespace"`
}

// Search returns the operations of doc whose path, summary or any tag
// contains keyword. Matching is case-sensitive on the trimmed keyword; an
// empty keyword matches everything. Results keep declaration order and are
// never nil.
func Search(doc *spec.Document, keyword string) []OperationSummary {
	out := []OperationSummary{}
	if doc == nil {
		return out
	}
	keyword = strings.TrimSpace(keyword)
	for i := range doc.Operations {
		op := &doc.Operations[i]
		if keyword != "" && !matches(op, keyword) {
			continue
		}
		out = append(out, summarize(op))
	}
	return out
}

func matches(op *spec.Operation, keyword string) bool {
	if strings.Contains(op.Path, keyword) || strings.Contains(op.Summary, keyword) {
		return true
	}
	for _, tag := range op.Tags {
		if strings.Contains(tag, keyword) {
			return true
		}
	}
	return false
}

func summarize(op *spec.Operation) OperationSummary {
	s := OperationSummary{
		Method:    strings.ToUpper(string(op.Method)),
		Path:      op.Path,
		Summary:   op.Summary,
		Namespace: op.Namespace,
	}
	if len(op.Tags) > 0 {
		s.Tags = append([]string(nil), op.Tags...)
	}
	return s
}
