package adaptor

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// relocateThreshold is the minimum composite score a candidate element must
// reach before relocation trusts it.
const relocateThreshold = 0.6

// Fingerprint is the stored structural identity of an element.
type Fingerprint struct {
	Tag         string            `json:"tag"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Text        string            `json:"text,omitempty"`
	Path        []string          `json:"path,omitempty"`
	ParentTag   string            `json:"parent_tag,omitempty"`
	SiblingTags []string          `json:"sibling_tags,omitempty"`
	ChildTags   []string          `json:"child_tags,omitempty"`
}

// Similarity scores how likely b is the same element as a after a layout
// change. The result is in [0, 1]. Weights favor attributes and text since
// those survive re-nesting better than the ancestor path does.
func Similarity(a, b Fingerprint) float64 {
	var score, total float64

	weigh := func(w, s float64) {
		total += w
		score += w * s
	}

	if a.Tag == b.Tag {
		weigh(0.15, 1)
	} else {
		weigh(0.15, 0)
	}
	weigh(0.30, attributeOverlap(a.Attributes, b.Attributes))
	weigh(0.30, textSimilarity(a.Text, b.Text))
	weigh(0.10, tagListOverlap(a.Path, b.Path))
	weigh(0.05, tagListOverlap(a.SiblingTags, b.SiblingTags))
	weigh(0.05, tagListOverlap(a.ChildTags, b.ChildTags))
	if a.ParentTag == b.ParentTag {
		weigh(0.05, 1)
	} else {
		weigh(0.05, 0)
	}

	if total == 0 {
		return 0
	}
	return score / total
}

// attributeOverlap is a Jaccard index over key=value pairs.
func attributeOverlap(a, b map[string]string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	matched := 0
	for k, v := range a {
		if bv, ok := b[k]; ok && bv == v {
			matched++
		}
	}
	union := len(a) + len(b) - matched
	return float64(matched) / float64(union)
}

// textSimilarity is a character-level diff ratio of the two trimmed texts.
func textSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)
	distance := dmp.DiffLevenshtein(diffs)
	longest := len([]rune(a))
	if lb := len([]rune(b)); lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	ratio := 1 - float64(distance)/float64(longest)
	if ratio < 0 {
		return 0
	}
	return ratio
}

// tagListOverlap compares two tag multisets positionally-insensitively.
func tagListOverlap(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	counts := map[string]int{}
	for _, t := range a {
		counts[t]++
	}
	matched := 0
	for _, t := range b {
		if counts[t] > 0 {
			counts[t]--
			matched++
		}
	}
	union := len(a) + len(b) - matched
	return float64(matched) / float64(union)
}
