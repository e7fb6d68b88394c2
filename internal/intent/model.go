package intent

import "math"

// TrainOptions controls fitting of the softmax regression.
type TrainOptions struct {
	// C is the inverse L2 regularization strength. The intercept is not penalized.
	C            float64
	LearningRate float64
	Iterations   int
}

// DefaultTrainOptions returns the settings used when none are configured.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{C: 20, LearningRate: 1.0, Iterations: 3000}
}

// softmaxModel is a multinomial logistic regression over sparse features.
type softmaxModel struct {
	weights [][]float64 // [class][feature]
	bias    []float64
}

// trainSoftmax minimizes mean cross-entropy plus ||W||²/(2·C·n) with
// full-batch gradient descent from a zero start. Same inputs, same weights.
func trainSoftmax(xs []sparseVec, ys []int, classes, dim int, opts TrainOptions) *softmaxModel {
	m := &softmaxModel{
		weights: make([][]float64, classes),
		bias:    make([]float64, classes),
	}
	gradW := make([][]float64, classes)
	for k := range classes {
		m.weights[k] = make([]float64, dim)
		gradW[k] = make([]float64, dim)
	}
	gradB := make([]float64, classes)

	n := float64(len(xs))
	if n == 0 {
		return m
	}
	lambda := 1 / (opts.C * n)

	for range opts.Iterations {
		for k := range classes {
			for j := range gradW[k] {
				gradW[k][j] = lambda * m.weights[k][j]
			}
			gradB[k] = 0
		}

		for s, x := range xs {
			p := m.probabilities(x)
			for k := range classes {
				d := p[k]
				if k == ys[s] {
					d--
				}
				d /= n
				gradB[k] += d
				for j, i := range x.idx {
					gradW[k][i] += d * x.val[j]
				}
			}
		}

		for k := range classes {
			m.bias[k] -= opts.LearningRate * gradB[k]
			for j := range m.weights[k] {
				m.weights[k][j] -= opts.LearningRate * gradW[k][j]
			}
		}
	}
	return m
}

// probabilities returns the softmax distribution over classes for x.
func (m *softmaxModel) probabilities(x sparseVec) []float64 {
	z := make([]float64, len(m.bias))
	maxZ := math.Inf(-1)
	for k := range z {
		s := m.bias[k]
		for j, i := range x.idx {
			s += m.weights[k][i] * x.val[j]
		}
		z[k] = s
		if s > maxZ {
			maxZ = s
		}
	}

	var sum float64
	for k := range z {
		z[k] = math.Exp(z[k] - maxZ)
		sum += z[k]
	}
	for k := range z {
		z[k] /= sum
	}
	return z
}
