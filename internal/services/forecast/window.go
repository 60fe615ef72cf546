package forecast

// Window is one supervised training example: TimeStep consecutive values and
// the value immediately following them.
type Window struct {
	Input  []float64
	Target float64
}

// Dataset is an ordered sequence of windows.
type Dataset []Window

// MakeWindows slides a window of length timeStep over series with stride 1.
// It yields max(len(series)-timeStep-1, 0) windows; the final possible window
// is never produced.
func MakeWindows(series []float64, timeStep int) Dataset {
	if timeStep <= 0 {
		return nil
	}
	n := len(series) - timeStep - 1
	if n <= 0 {
		return nil
	}
	ds := make(Dataset, n)
	for i := range ds {
		ds[i] = Window{
			Input:  series[i : i+timeStep : i+timeStep],
			Target: series[i+timeStep],
		}
	}
	return ds
}

// Targets returns the target of every window in order.
func (ds Dataset) Targets() []float64 {
	out := make([]float64, len(ds))
	for i, w := range ds {
		out[i] = w.Target
	}
	return out
}
