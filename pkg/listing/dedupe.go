package listing

// DedupeByTitle keeps one product per title. The last occurrence wins and is
// listed at its own position; earlier duplicates are dropped.
func DedupeByTitle(products []Product) []Product {
	last := make(map[string]int, len(products))
	for i, p := range products {
		last[p.Title] = i
	}
	out := make([]Product, 0, len(last))
	for i, p := range products {
		if last[p.Title] == i {
			out = append(out, p)
		}
	}
	return out
}
