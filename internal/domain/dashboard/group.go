package dashboard

import (
	"sort"
	"strings"
)

// GroupStats maps a group path to stats computed over the full filtered
// dataset. A nil map means nothing was precomputed.
type GroupStats map[string]Stats

// Group is an ephemeral partition of rows by one dimension value
type Group struct {
	Dimension Dimension `json:"dimension"`
	Key       string    `json:"key"`
	Label     string    `json:"label"`
	Path      string    `json:"path"`
	RowKeys   []string  `json:"row_keys"`
	Stats     Stats     `json:"stats"`
	// Exact is false when Stats only cover the materialized rows
	Exact     bool      `json:"exact"`
	Collapsed bool      `json:"collapsed"`
	Children  []Group   `json:"children,omitempty"`
}

// GroupPath joins a parent path with one dimension bucket
func GroupPath(parent string, dim Dimension, key string) string {
	seg := string(dim) + ":" + key
	if parent == "" {
		return seg
	}
	return parent + "/" + seg
}

// ParentPath returns the path of the enclosing group, or "" at the top level
func ParentPath(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[:i]
	}
	return ""
}

// ComputeGroupStats rolls rows up at every nesting level
func ComputeGroupStats(rows []Row, dims []Dimension, conv Conversion) (GroupStats, []error) {
	if len(dims) == 0 {
		return nil, nil
	}
	accs := make(map[string]*Accumulator)
	for i := range rows {
		r := &rows[i]
		path := ""
		for _, dim := range dims {
			path = GroupPath(path, dim, dim.Extract(r).Key)
			acc, ok := accs[path]
			if !ok {
				acc = NewAccumulator()
				accs[path] = acc
			}
			acc.Add(r)
		}
	}
	out := make(GroupStats, len(accs))
	var misses []error
	for path, acc := range accs {
		s, m := acc.Stats(conv)
		out[path] = s
		misses = append(misses, m...)
	}
	return out, misses
}

// BuildGroups partitions already-sorted rows into nested groups. Precomputed
// stats win over stats derived from rows.
func BuildGroups(rows []Row, dims []Dimension, precomputed GroupStats, conv Conversion) []Group {
	if len(dims) == 0 {
		return nil
	}
	return buildLevel(rows, dims, "", precomputed, conv)
}

type bucketRows struct {
	bucket Bucket
	rows   []Row
}

func buildLevel(rows []Row, dims []Dimension, parent string, precomputed GroupStats, conv Conversion) []Group {
	dim := dims[0]
	index := make(map[string]*bucketRows)
	var order []*bucketRows
	for _, r := range rows {
		b := dim.Extract(&r)
		br, ok := index[b.Key]
		if !ok {
			br = &bucketRows{bucket: b}
			index[b.Key] = br
			order = append(order, br)
		}
		br.rows = append(br.rows, r)
	}
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].bucket.Label != order[j].bucket.Label {
			return order[i].bucket.Label < order[j].bucket.Label
		}
		return order[i].bucket.Key < order[j].bucket.Key
	})

	groups := make([]Group, 0, len(order))
	for _, br := range order {
		path := GroupPath(parent, dim, br.bucket.Key)
		g := Group{
			Dimension: dim,
			Key:       br.bucket.Key,
			Label:     br.bucket.Label,
			Path:      path,
			RowKeys:   make([]string, len(br.rows)),
		}
		for i := range br.rows {
			g.RowKeys[i] = br.rows[i].Key
		}
		if s, ok := precomputed[path]; ok {
			g.Stats, g.Exact = s, true
		} else {
			g.Stats, _ = Summarize(br.rows, conv)
		}
		if len(dims) > 1 {
			g.Children = buildLevel(br.rows, dims[1:], path, precomputed, conv)
		}
		groups = append(groups, g)
	}
	return groups
}

// Walk visits every group depth-first
func Walk(groups []Group, fn func(g *Group)) {
	for i := range groups {
		fn(&groups[i])
		Walk(groups[i].Children, fn)
	}
}

// MergeGroups folds the groups of a further page into groups built from the
// pages before it. Rows keep their load order inside a bucket, buckets stay
// ordered by label, and exact stats win over partial ones.
func MergeGroups(existing, incoming []Group) []Group {
	out := CloneGroups(existing)
	index := make(map[string]int, len(out))
	for i := range out {
		index[out[i].Path] = i
	}
	for _, g := range incoming {
		i, ok := index[g.Path]
		if !ok {
			out = append(out, cloneGroup(g))
			index[g.Path] = len(out) - 1
			continue
		}
		cur := &out[i]
		cur.RowKeys = append(cur.RowKeys, g.RowKeys...)
		switch {
		case g.Exact:
			cur.Stats, cur.Exact = g.Stats, true
		case !cur.Exact:
			cur.Stats = addStats(cur.Stats, g.Stats)
		}
		cur.Children = MergeGroups(cur.Children, g.Children)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// CloneGroups deep-copies groups so callers can mutate flags freely
func CloneGroups(groups []Group) []Group {
	if groups == nil {
		return nil
	}
	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = cloneGroup(g)
	}
	return out
}

func cloneGroup(g Group) Group {
	g.RowKeys = append([]string(nil), g.RowKeys...)
	g.Children = CloneGroups(g.Children)
	return g
}

func addStats(a, b Stats) Stats {
	return Stats{
		Count:     a.Count + b.Count,
		SumDue:    a.SumDue.Add(b.SumDue),
		SumPaid:   a.SumPaid.Add(b.SumPaid),
		SumUnpaid: a.SumUnpaid.Add(b.SumUnpaid),
	}
}
