// Package freq builds frequency tables over token sequences.
package freq

import "sort"

// Entry is one distinct term and how often it occurred.
type Entry struct {
	Term  string
	Count int
}

// Table is a frequency table ordered most frequent first.
// Terms with equal counts keep the order in which they were first seen.
type Table []Entry

// Count tallies tokens into a Table.
func Count(tokens []string) Table {
	index := make(map[string]int, len(tokens))
	var table Table
	for _, tok := range tokens {
		if i, ok := index[tok]; ok {
			table[i].Count++
			continue
		}
		index[tok] = len(table)
		table = append(table, Entry{Term: tok, Count: 1})
	}
	sort.SliceStable(table, func(i, j int) bool {
		return table[i].Count > table[j].Count
	})
	return table
}

// Top returns the n most frequent entries. It never returns more entries than
// the table holds; n <= 0 yields an empty table.
func (t Table) Top(n int) Table {
	if n <= 0 {
		return Table{}
	}
	if n > len(t) {
		n = len(t)
	}
	out := make(Table, n)
	copy(out, t[:n])
	return out
}

// Total returns the sum of all counts, which equals the number of counted tokens.
func (t Table) Total() int {
	total := 0
	for _, e := range t {
		total += e.Count
	}
	return total
}

// Len returns the number of distinct terms.
func (t Table) Len() int { return len(t) }

// Map returns the table as a term -> count map.
func (t Table) Map() map[string]int {
	m := make(map[string]int, len(t))
	for _, e := range t {
		m[e.Term] = e.Count
	}
	return m
}

// Terms returns the terms in table order.
func (t Table) Terms() []string {
	out := make([]string, len(t))
	for i, e := range t {
		out[i] = e.Term
	}
	return out
}
