package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/cerebric/cerebric/pkg/model"
)

// Retriever indexes documents and returns ranked hits for a query string.
// The internal indexing algorithm (dense, sparse, or hybrid) is out of
// scope for the core; this interface is the only contract the Decision
// Loop depends on.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]model.RetrievedMemory, error)
}

// NaiveRetriever is a deterministic, dependency-free Retriever used for
// tests and as the default when no richer retrieval collaborator is
// registered in the capability registry: a case-insensitive substring
// match over a partition's entries, scored by match count. It is not meant
// to be the production retrieval engine (out of scope per the spec), only
// a conservative fallback with no ordering surprises beyond "monotonically
// non-increasing score".
type NaiveRetriever struct {
	store     *Store
	partition string
	filenames []string
}

// NewNaiveRetriever builds a Retriever over the given partition/files.
func NewNaiveRetriever(store *Store, partition string, filenames ...string) *NaiveRetriever {
	return &NaiveRetriever{store: store, partition: partition, filenames: filenames}
}

func (r *NaiveRetriever) Retrieve(ctx context.Context, query string, k int) ([]model.RetrievedMemory, error) {
	if k <= 0 {
		k = 3
	}
	q := strings.ToLower(strings.TrimSpace(query))

	var hits []model.RetrievedMemory
	for _, fn := range r.filenames {
		entries, err := r.store.ListEntries(r.partition, fn)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			text := renderEntry(e)
			score := matchScore(q, text)
			if score <= 0 {
				continue
			}
			hits = append(hits, model.RetrievedMemory{
				Score:    score,
				Source:   r.partition + "/" + fn,
				Text:     text,
				Metadata: e,
			})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func matchScore(query, text string) float64 {
	if query == "" {
		return 0
	}
	lower := strings.ToLower(text)
	count := strings.Count(lower, query)
	return float64(count)
}

func renderEntry(e map[string]any) string {
	var b strings.Builder
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(toText(e[k]))
	}
	return b.String()
}

func toText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	default:
		return ""
	}
}

// FormatContext renders hits as a markdown block suitable for injection
// into the autonomous prompt, following the teacher's state.Manager
// FormatContext convention.
func FormatContext(hits []model.RetrievedMemory) string {
	if len(hits) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("## Retrieved memories\n")
	for _, h := range hits {
		b.WriteString("- (")
		b.WriteString(h.Source)
		b.WriteString(") ")
		b.WriteString(h.Text)
		b.WriteString("\n")
	}
	return b.String()
}
