package forecast

// ForecastWindow is a fixed-length FIFO over the most recent values. Pushing
// into a full window evicts the oldest value.
type ForecastWindow struct {
	buf  []float64
	head int // index of the oldest value
	size int
}

// NewForecastWindow seeds a window of capacity n with the last n values of
// history.
func NewForecastWindow(history []float64, n int) (*ForecastWindow, error) {
	if n <= 0 || len(history) < n {
		return nil, ErrInsufficientHistory
	}
	buf := make([]float64, n)
	copy(buf, history[len(history)-n:])
	return &ForecastWindow{buf: buf, size: n}, nil
}

func (w *ForecastWindow) Len() int { return w.size }

func (w *ForecastWindow) Push(v float64) {
	w.buf[w.head] = v
	w.head = (w.head + 1) % len(w.buf)
}

// Values copies the window, oldest first, into dst and returns it.
func (w *ForecastWindow) Values(dst []float64) []float64 {
	if cap(dst) < w.size {
		dst = make([]float64, w.size)
	}
	dst = dst[:w.size]
	n := copy(dst, w.buf[w.head:])
	copy(dst[n:], w.buf[:w.head])
	return dst
}
