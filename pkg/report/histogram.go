package report

// Bucket is one histogram bin covering [Low, High); the last bin also includes High.
type Bucket struct {
	Low, High float64
	Count     int
}

// Bin splits values into n equal-width buckets spanning [min, max]. A single
// distinct value v is spread over [v-0.5, v+0.5].
func Bin(values []float64, n int) []Bucket {
	if len(values) == 0 || n <= 0 {
		return nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(n)
	buckets := make([]Bucket, n)
	for i := range buckets {
		buckets[i].Low = lo + float64(i)*width
		buckets[i].High = lo + float64(i+1)*width
	}
	buckets[n-1].High = hi
	for _, v := range values {
		i := int((v - lo) / width)
		if i >= n {
			i = n - 1
		}
		if i < 0 {
			i = 0
		}
		buckets[i].Count++
	}
	return buckets
}
