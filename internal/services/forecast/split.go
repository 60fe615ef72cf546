package forecast

// Split cuts ds at floor(len(ds)*ratio). Both halves keep temporal order and
// share the backing array of ds.
func Split(ds Dataset, ratio float64) (train, test Dataset) {
	cut := splitIndex(len(ds), ratio)
	return ds[:cut:cut], ds[cut:]
}

// SplitThreeWay cuts ds into train, validation and test partitions, in that
// temporal order.
func SplitThreeWay(ds Dataset, trainRatio, valRatio float64) (train, val, test Dataset) {
	t := splitIndex(len(ds), trainRatio)
	v := t + splitIndex(len(ds), valRatio)
	if v > len(ds) {
		v = len(ds)
	}
	return ds[:t:t], ds[t:v:v], ds[v:]
}

func splitIndex(n int, ratio float64) int {
	cut := int(float64(n) * ratio)
	switch {
	case cut < 0:
		return 0
	case cut > n:
		return n
	}
	return cut
}
