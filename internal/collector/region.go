package collector

// RegionFilter drops centers whose region is outside the configured
// allow-list. An empty list allows all.
type RegionFilter struct {
	allowed map[string]struct{}
}

// NewRegionFilter builds a filter from the configured region names.
func NewRegionFilter(regions []string) *RegionFilter {
	f := &RegionFilter{allowed: make(map[string]struct{}, len(regions))}
	for _, r := range regions {
		f.allowed[r] = struct{}{}
	}
	return f
}

// Allow reports whether rows from the given region may be appended.
func (f *RegionFilter) Allow(region string) bool {
	if len(f.allowed) == 0 {
		return true
	}
	_, ok := f.allowed[region]
	return ok
}
