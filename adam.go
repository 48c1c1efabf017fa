package reviews

import "math"

// adam implements the Adam optimizer over flat parameter buffers.
type adam struct {
	learningRate float64
	beta1        float64
	beta2        float64
	epsilon      float64
	t            int
	m            [][]float64 // 1st moment vector
	v            [][]float64 // 2nd moment vector
}

func newAdam(learningRate, beta1, beta2, epsilon float64, params [][]float64) *adam {
	o := &adam{
		learningRate: learningRate,
		beta1:        beta1,
		beta2:        beta2,
		epsilon:      epsilon,
		m:            make([][]float64, len(params)),
		v:            make([][]float64, len(params)),
	}
	for i, p := range params {
		o.m[i] = make([]float64, len(p))
		o.v[i] = make([]float64, len(p))
	}
	return o
}

// step applies one update. grads must share the layout of params.
func (o *adam) step(params, grads [][]float64) {
	o.t++
	t := float64(o.t)
	lr := o.learningRate * math.Sqrt(1-math.Pow(o.beta2, t)) / (1 - math.Pow(o.beta1, t))

	for k, p := range params {
		g, m, v := grads[k], o.m[k], o.v[k]
		for i := range p {
			m[i] = o.beta1*m[i] + (1-o.beta1)*g[i]
			v[i] = o.beta2*v[i] + (1-o.beta2)*g[i]*g[i]
			p[i] -= lr * m[i] / (math.Sqrt(v[i]) + o.epsilon)
		}
	}
}
