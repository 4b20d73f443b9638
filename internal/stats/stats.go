package stats

import (
	"sort"

	"strand/loom/internal/ir"
)

// Hub is a node with high connectivity.
type Hub struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Type      string `json:"type"`
	Degree    int    `json:"degree"`
	InDegree  int    `json:"in_degree"`
	OutDegree int    `json:"out_degree"`
}

// DegreeBucket is one bucket in the degree histogram.
type DegreeBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Report is the full structural statistics output.
type Report struct {
	TotalNodes        int             `json:"total_nodes"`
	TotalEdges        int             `json:"total_edges"`
	TotalStates       int             `json:"total_states"`
	NodesByType       map[string]int  `json:"nodes_by_type"`
	EdgesByType       map[string]int  `json:"edges_by_type"`
	NumComponents     int             `json:"num_components"`
	LargestComponent  int             `json:"largest_component"`
	SmallestComponent int             `json:"smallest_component"`
	DegreeHistogram   []DegreeBucket  `json:"degree_histogram"`
	Hubs              []Hub           `json:"hubs"`
	CutVertices       []CutVertex     `json:"cut_vertices"`
	Bridges           []Bridge        `json:"bridges"`
	NearDuplicates    []NearDuplicate `json:"near_duplicates"`
}

// Options tunes the analysis thresholds.
type Options struct {
	HubThreshold  int     // minimum degree (exclusive) for hub listing
	TopN          int     // cap for hubs and near-duplicate lists
	MinSimilarity float64 // near-duplicate cutoff
}

// DefaultOptions returns the thresholds the CLI uses.
func DefaultOptions() Options {
	return Options{HubThreshold: 3, TopN: 10, MinSimilarity: 0.85}
}

// Compute analyzes a document and returns its structural report.
func Compute(doc *ir.Document, opts Options) *Report {
	if opts.TopN <= 0 {
		opts.TopN = 10
	}
	if opts.MinSimilarity <= 0 {
		opts.MinSimilarity = 0.85
	}

	s := newSnapshot(doc)
	rep := &Report{
		TotalNodes:      len(doc.Nodes),
		TotalEdges:      len(doc.Relationships),
		TotalStates:     len(doc.States),
		NodesByType:     make(map[string]int),
		EdgesByType:     make(map[string]int),
		DegreeHistogram: defaultHistogram(),
	}
	for _, n := range doc.Nodes {
		rep.NodesByType[string(n.Type)]++
	}
	for _, r := range doc.Relationships {
		rep.EdgesByType[string(r.Type)]++
	}
	if rep.TotalNodes == 0 {
		return rep
	}

	uf := newUnionFind(s.order)
	for _, r := range doc.Relationships {
		if _, ok := s.nodes[r.Source]; !ok {
			continue
		}
		if _, ok := s.nodes[r.Target]; !ok {
			continue
		}
		uf.union(r.Source, r.Target)
	}
	sizes := uf.componentSizes()
	rep.NumComponents = len(sizes)
	rep.LargestComponent = sizes[0]
	rep.SmallestComponent = sizes[len(sizes)-1]

	for _, id := range s.order {
		rep.DegreeHistogram[degreeBucket(s.degree(id))].Count++
	}

	var hubs []Hub
	for _, id := range s.order {
		d := s.degree(id)
		if d <= opts.HubThreshold {
			continue
		}
		n := s.nodes[id]
		hubs = append(hubs, Hub{
			ID:        n.ID,
			Content:   n.Content,
			Type:      string(n.Type),
			Degree:    d,
			InDegree:  len(s.in[id]),
			OutDegree: len(s.out[id]),
		})
	}
	sort.Slice(hubs, func(i, j int) bool {
		if hubs[i].Degree != hubs[j].Degree {
			return hubs[i].Degree > hubs[j].Degree
		}
		return hubs[i].ID < hubs[j].ID
	})
	if len(hubs) > opts.TopN {
		hubs = hubs[:opts.TopN]
	}
	rep.Hubs = hubs

	rep.CutVertices, rep.Bridges = findCutpoints(s)
	rep.NearDuplicates = findNearDuplicates(doc, opts.MinSimilarity, opts.TopN)
	return rep
}

func defaultHistogram() []DegreeBucket {
	return []DegreeBucket{
		{Label: "0"}, {Label: "1"}, {Label: "2-3"},
		{Label: "4-7"}, {Label: "8-15"}, {Label: "16+"},
	}
}

func degreeBucket(degree int) int {
	switch {
	case degree == 0:
		return 0
	case degree == 1:
		return 1
	case degree <= 3:
		return 2
	case degree <= 7:
		return 3
	case degree <= 15:
		return 4
	default:
		return 5
	}
}
