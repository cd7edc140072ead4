package coding

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	NoResearchContext = "No specific research context provided."
	NoCodes           = "No codes available."

	snapshotRunes        = 100
	defaultDeductiveConf = 75
)

// ExistingCode is a persisted code offered to the model for reuse.
type ExistingCode struct {
	Name        string
	Description string
	Color       string
}

// FormatResearchContext renders a project's research_details JSON object as
// "key: value" pairs joined by "; ". Lists are joined by ", ".
func FormatResearchContext(raw []byte) string {
	if len(raw) == 0 {
		return NoResearchContext
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil || len(m) == 0 {
		return NoResearchContext
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := formatValue(m[k])
		if v == "" {
			continue
		}
		parts = append(parts, k+": "+v)
	}
	if len(parts) == 0 {
		return NoResearchContext
	}
	return strings.Join(parts, "; ")
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []any:
		items := make([]string, 0, len(t))
		for _, x := range t {
			if s := formatValue(x); s != "" {
				items = append(items, s)
			}
		}
		return strings.Join(items, ", ")
	case float64:
		if t == math.Trunc(t) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// FormatCodes renders "- name: description" lines.
func FormatCodes(codes []ExistingCode) string {
	if len(codes) == 0 {
		return NoCodes
	}
	var b strings.Builder
	for i, c := range codes {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(c.Name)
		b.WriteString(": ")
		b.WriteString(c.Description)
	}
	return b.String()
}

// Snapshot is the text stored with an assignment: the quote, or the head of
// the chunk when the model gave none.
func Snapshot(quote, chunkText string) string {
	if q := strings.TrimSpace(quote); q != "" {
		return q
	}
	return truncateRunes(chunkText, snapshotRunes) + "..."
}

// DeductiveConfidence maps the i-th score to 0-100. Scores may arrive on a
// 0-1 or 0-100 scale; a missing score defaults to 75.
func DeductiveConfidence(scores []float64, i int) int {
	if i < 0 || i >= len(scores) {
		return defaultDeductiveConf
	}
	s := scores[i]
	if math.IsNaN(s) || s < 0 {
		return 0
	}
	if s <= 1 {
		s *= 100
	}
	if s > 100 {
		s = 100
	}
	return int(math.Round(s))
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
