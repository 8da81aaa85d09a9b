package thirteenf

// HoldingsRange is an inclusive [Min, Max] bound on holdings count.
type HoldingsRange struct {
	Min int
	Max int
}

// HoldingsFilter screens funds by their distinct-holdings count. Between,
// when set, overrides Min and Max entirely. A nil or zero filter passes
// every count.
type HoldingsFilter struct {
	Min     *int
	Max     *int
	Between *HoldingsRange
}

// Passes reports whether count satisfies the filter.
func (f *HoldingsFilter) Passes(count int) bool {
	if f == nil {
		return true
	}
	min, max := f.Min, f.Max
	if f.Between != nil {
		min, max = &f.Between.Min, &f.Between.Max
	}
	if min != nil && count < *min {
		return false
	}
	if max != nil && count > *max {
		return false
	}
	return true
}
