// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import (
	"strings"

	"github.com/pdiddy/parchment/pkg/types"
)

// TagSection groups feed categories under an archive heading.
type TagSection struct {
	Title string
	Tags  []types.ListTag
}

var tagSections = []TagSection{
	{Title: "Computer Science", Tags: []types.ListTag{
		{ID: "cs.AI", Name: "Artificial Intelligence"},
		{ID: "cs.CL", Name: "Computation and Language"},
		{ID: "cs.CR", Name: "Cryptography and Security"},
		{ID: "cs.CV", Name: "Computer Vision and Pattern Recognition"},
		{ID: "cs.DB", Name: "Databases"},
		{ID: "cs.DC", Name: "Distributed, Parallel, and Cluster Computing"},
		{ID: "cs.DS", Name: "Data Structures and Algorithms"},
		{ID: "cs.HC", Name: "Human-Computer Interaction"},
		{ID: "cs.IR", Name: "Information Retrieval"},
		{ID: "cs.LG", Name: "Machine Learning"},
		{ID: "cs.NE", Name: "Neural and Evolutionary Computing"},
		{ID: "cs.NI", Name: "Networking and Internet Architecture"},
		{ID: "cs.PL", Name: "Programming Languages"},
		{ID: "cs.RO", Name: "Robotics"},
		{ID: "cs.SE", Name: "Software Engineering"},
	}},
	{Title: "Statistics", Tags: []types.ListTag{
		{ID: "stat.ML", Name: "Machine Learning"},
		{ID: "stat.ME", Name: "Methodology"},
		{ID: "stat.TH", Name: "Statistics Theory"},
	}},
	{Title: "Mathematics", Tags: []types.ListTag{
		{ID: "math.OC", Name: "Optimization and Control"},
		{ID: "math.PR", Name: "Probability"},
		{ID: "math.ST", Name: "Statistics Theory"},
	}},
	{Title: "Physics", Tags: []types.ListTag{
		{ID: "physics.gen-ph", Name: "General Physics"},
		{ID: "quant-ph", Name: "Quantum Physics"},
		{ID: "hep-th", Name: "High Energy Physics - Theory"},
		{ID: "astro-ph.CO", Name: "Cosmology and Nongalactic Astrophysics"},
		{ID: "cond-mat.stat-mech", Name: "Statistical Mechanics"},
	}},
	{Title: "Quantitative Biology", Tags: []types.ListTag{
		{ID: "q-bio.NC", Name: "Neurons and Cognition"},
		{ID: "q-bio.QM", Name: "Quantitative Methods"},
	}},
	{Title: "Electrical Engineering and Systems Science", Tags: []types.ListTag{
		{ID: "eess.AS", Name: "Audio and Speech Processing"},
		{ID: "eess.IV", Name: "Image and Video Processing"},
		{ID: "eess.SP", Name: "Signal Processing"},
	}},
	{Title: "Economics", Tags: []types.ListTag{
		{ID: "econ.EM", Name: "Econometrics"},
	}},
}

// TagSections returns the tag catalog grouped by archive.
func TagSections() []TagSection {
	out := make([]TagSection, len(tagSections))
	for i, s := range tagSections {
		out[i] = TagSection{Title: s.Title, Tags: append([]types.ListTag(nil), s.Tags...)}
	}
	return out
}

// AllTags returns every catalog tag in section order.
func AllTags() []types.ListTag {
	var out []types.ListTag
	for _, s := range tagSections {
		out = append(out, s.Tags...)
	}
	return out
}

// FilterTags returns the catalog tags whose ID or name contains term,
// ignoring case. A blank term returns every tag.
func FilterTags(term string) []types.ListTag {
	term = strings.ToLower(strings.TrimSpace(term))
	all := AllTags()
	if term == "" {
		return all
	}
	var out []types.ListTag
	for _, t := range all {
		if strings.Contains(strings.ToLower(t.ID), term) || strings.Contains(strings.ToLower(t.Name), term) {
			out = append(out, t)
		}
	}
	return out
}

// TagByID looks up a catalog tag.
func TagByID(id string) (types.ListTag, bool) {
	for _, t := range AllTags() {
		if t.ID == id {
			return t, true
		}
	}
	return types.ListTag{}, false
}
