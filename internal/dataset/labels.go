package dataset

import (
	"fmt"
	"sort"
)

// LabelEncoder maps arbitrary string labels to contiguous indices 0..k-1 in sorted order.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

// NewLabelEncoder learns the label set from values.
func NewLabelEncoder(values []string) *LabelEncoder {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	classes := make([]string, 0, len(seen))
	for v := range seen {
		classes = append(classes, v)
	}
	sort.Strings(classes)

	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	return &LabelEncoder{classes: classes, index: index}
}

// Classes returns the known labels in index order.
func (e *LabelEncoder) Classes() []string {
	return append([]string(nil), e.classes...)
}

// Encode converts labels to indices.
func (e *LabelEncoder) Encode(values []string) ([]int, error) {
	out := make([]int, len(values))
	for i, v := range values {
		idx, ok := e.index[v]
		if !ok {
			return nil, fmt.Errorf("unknown label %q at row %d", v, i)
		}
		out[i] = idx
	}
	return out, nil
}

// Decode converts indices back to labels.
func (e *LabelEncoder) Decode(indices []int) ([]string, error) {
	out := make([]string, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(e.classes) {
			return nil, fmt.Errorf("label index %d out of range [0, %d)", idx, len(e.classes))
		}
		out[i] = e.classes[idx]
	}
	return out, nil
}
