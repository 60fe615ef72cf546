package forecast

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

// Gate blocks inside every 4H-sized row group, in this order.
const (
	gateInput = iota
	gateForget
	gateCell
	gateOutput
	numGates
)

// lstmLayer is a view over the flat parameter (or gradient) vector for one
// recurrent layer. w is [4H][in] and u is [4H][H], both row major.
type lstmLayer struct {
	in, hidden int
	w, u, b    []float64
}

func (l lstmLayer) wRow(r int) []float64 { return l.w[r*l.in : (r+1)*l.in] }
func (l lstmLayer) uRow(r int) []float64 { return l.u[r*l.hidden : (r+1)*l.hidden] }

func layerSize(in, hidden int) int {
	rows := numGates * hidden
	return rows*in + rows*hidden + rows
}

func layerView(buf []float64, in, hidden int) lstmLayer {
	rows := numGates * hidden
	w := buf[: rows*in : rows*in]
	buf = buf[rows*in:]
	u := buf[: rows*hidden : rows*hidden]
	buf = buf[rows*hidden:]
	return lstmLayer{in: in, hidden: hidden, w: w, u: u, b: buf[:rows:rows]}
}

// network is the stacked LSTM(seq) -> LSTM(last) -> Dense(1) topology laid
// over one flat vector.
type network struct {
	l1, l2 lstmLayer
	dense  []float64
	bias   []float64 // length 1
}

func networkSize(in, hidden int) int {
	return layerSize(in, hidden) + layerSize(hidden, hidden) + hidden + 1
}

func networkView(buf []float64, in, hidden int) network {
	n1 := layerSize(in, hidden)
	n2 := layerSize(hidden, hidden)
	return network{
		l1:    layerView(buf[:n1], in, hidden),
		l2:    layerView(buf[n1:n1+n2], hidden, hidden),
		dense: buf[n1+n2 : n1+n2+hidden],
		bias:  buf[n1+n2+hidden : n1+n2+hidden+1],
	}
}

// initNetwork applies Glorot-uniform kernels, zero biases and a forget-gate
// bias of one.
func initNetwork(net network, rng *rand.Rand) {
	for _, l := range []lstmLayer{net.l1, net.l2} {
		rows := numGates * l.hidden
		glorot(l.w, l.in, rows, rng)
		glorot(l.u, l.hidden, rows, rng)
		for i := range l.b {
			l.b[i] = 0
		}
		for j := 0; j < l.hidden; j++ {
			l.b[gateForget*l.hidden+j] = 1
		}
	}
	glorot(net.dense, len(net.dense), 1, rng)
	net.bias[0] = 0
}

func glorot(dst []float64, fanIn, fanOut int, rng *rand.Rand) {
	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	for i := range dst {
		dst[i] = (rng.Float64()*2 - 1) * limit
	}
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

// layerTrace keeps the activations of one layer over one sequence, needed by
// the backward pass.
type layerTrace struct {
	steps, hidden int
	xs            [][]float64
	gates         []float64 // steps x 4H, post-activation
	c             []float64 // steps x H
	h             []float64 // steps x H
	z             []float64 // 4H scratch
}

func newLayerTrace(steps, hidden int) *layerTrace {
	return &layerTrace{
		steps:  steps,
		hidden: hidden,
		xs:     make([][]float64, steps),
		gates:  make([]float64, steps*numGates*hidden),
		c:      make([]float64, steps*hidden),
		h:      make([]float64, steps*hidden),
		z:      make([]float64, numGates*hidden),
	}
}

func (tr *layerTrace) hAt(t int) []float64 { return tr.h[t*tr.hidden : (t+1)*tr.hidden] }
func (tr *layerTrace) cAt(t int) []float64 { return tr.c[t*tr.hidden : (t+1)*tr.hidden] }
func (tr *layerTrace) gatesAt(t int) []float64 {
	return tr.gates[t*numGates*tr.hidden : (t+1)*numGates*tr.hidden]
}

// forward runs the layer over xs, which must hold tr.steps inputs.
func (l lstmLayer) forward(xs [][]float64, tr *layerTrace) {
	H := l.hidden
	for t, x := range xs {
		tr.xs[t] = x
		z := tr.z
		copy(z, l.b)
		for r := range z {
			z[r] += floats.Dot(l.wRow(r), x)
			if t > 0 {
				z[r] += floats.Dot(l.uRow(r), tr.hAt(t-1))
			}
		}
		g := tr.gatesAt(t)
		c, h := tr.cAt(t), tr.hAt(t)
		for j := 0; j < H; j++ {
			ig := sigmoid(z[gateInput*H+j])
			fg := sigmoid(z[gateForget*H+j])
			cg := math.Tanh(z[gateCell*H+j])
			og := sigmoid(z[gateOutput*H+j])
			g[gateInput*H+j], g[gateForget*H+j], g[gateCell*H+j], g[gateOutput*H+j] = ig, fg, cg, og
			prev := 0.0
			if t > 0 {
				prev = tr.cAt(t - 1)[j]
			}
			c[j] = fg*prev + ig*cg
			h[j] = og * math.Tanh(c[j])
		}
	}
}

// backward propagates dh (per-step gradient w.r.t. the layer output, nil
// entries meaning zero) through time, accumulating parameter gradients into
// grad. When dx is non-nil, dx[t] receives the gradient w.r.t. input t.
func (l lstmLayer) backward(tr *layerTrace, dh [][]float64, grad lstmLayer, dx [][]float64) {
	H := l.hidden
	dhNext := make([]float64, H)
	dcNext := make([]float64, H)
	dz := make([]float64, numGates*H)
	for t := tr.steps - 1; t >= 0; t-- {
		g := tr.gatesAt(t)
		c := tr.cAt(t)
		for j := 0; j < H; j++ {
			dhj := dhNext[j]
			if dh[t] != nil {
				dhj += dh[t][j]
			}
			ig, fg, cg, og := g[gateInput*H+j], g[gateForget*H+j], g[gateCell*H+j], g[gateOutput*H+j]
			tc := math.Tanh(c[j])
			dc := dhj*og*(1-tc*tc) + dcNext[j]
			prev := 0.0
			if t > 0 {
				prev = tr.cAt(t - 1)[j]
			}
			dz[gateInput*H+j] = dc * cg * ig * (1 - ig)
			dz[gateForget*H+j] = dc * prev * fg * (1 - fg)
			dz[gateCell*H+j] = dc * ig * (1 - cg*cg)
			dz[gateOutput*H+j] = dhj * tc * og * (1 - og)
			dcNext[j] = dc * fg
		}

		x := tr.xs[t]
		for i := range dhNext {
			dhNext[i] = 0
		}
		for r, d := range dz {
			if d == 0 {
				continue
			}
			grad.b[r] += d
			floats.AddScaled(grad.wRow(r), d, x)
			if t > 0 {
				floats.AddScaled(grad.uRow(r), d, tr.hAt(t-1))
				floats.AddScaled(dhNext, d, l.uRow(r))
			}
			if dx != nil {
				floats.AddScaled(dx[t], d, l.wRow(r))
			}
		}
	}
}

// sampleWork is the scratch space one goroutine needs to process a window.
type sampleWork struct {
	in      [][]float64
	t1, t2  *layerTrace
	dh1     [][]float64
	dh2     [][]float64
	grad    []float64
	gradNet network
}

func newSampleWork(steps, in, hidden int) *sampleWork {
	w := &sampleWork{
		in:   make([][]float64, steps),
		t1:   newLayerTrace(steps, hidden),
		t2:   newLayerTrace(steps, hidden),
		dh1:  make([][]float64, steps),
		dh2:  make([][]float64, steps),
		grad: make([]float64, networkSize(in, hidden)),
	}
	scalars := make([]float64, steps*in)
	dh1 := make([]float64, steps*hidden)
	for t := 0; t < steps; t++ {
		w.in[t] = scalars[t*in : (t+1)*in]
		w.dh1[t] = dh1[t*hidden : (t+1)*hidden]
	}
	w.gradNet = networkView(w.grad, in, hidden)
	return w
}

func (w *sampleWork) load(input []float64) {
	for t, v := range input {
		w.in[t][0] = v
	}
}

// predict runs the forward pass for one univariate input sequence.
func (net network) predict(input []float64, w *sampleWork) float64 {
	w.load(input)
	net.l1.forward(w.in, w.t1)
	h1 := make([][]float64, w.t1.steps)
	for t := range h1 {
		h1[t] = w.t1.hAt(t)
	}
	net.l2.forward(h1, w.t2)
	return floats.Dot(net.dense, w.t2.hAt(w.t2.steps-1)) + net.bias[0]
}

// accumulate runs forward and backward for one window and adds
// d(scale*(y-target)^2)/dθ into w.grad. It returns the squared error.
func (net network) accumulate(win Window, scale float64, w *sampleWork) float64 {
	y := net.predict(win.Input, w)
	diff := y - win.Target
	dy := 2 * diff * scale

	g := w.gradNet
	last := w.t2.hAt(w.t2.steps - 1)
	floats.AddScaled(g.dense, dy, last)
	g.bias[0] += dy

	for t := range w.dh2 {
		w.dh2[t] = nil
	}
	dLast := make([]float64, len(net.dense))
	floats.AddScaled(dLast, dy, net.dense)
	w.dh2[w.t2.steps-1] = dLast

	for t := range w.dh1 {
		for j := range w.dh1[t] {
			w.dh1[t][j] = 0
		}
	}
	net.l2.backward(w.t2, w.dh2, g.l2, w.dh1)
	net.l1.backward(w.t1, w.dh1, g.l1, nil)
	return diff * diff
}
