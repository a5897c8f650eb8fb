// Package svm loads LIBSVM classification models and evaluates them.
//
// Only the prediction half of LIBSVM is implemented: models are trained
// offline with the LIBSVM tools and loaded here from their text format.
// A loaded Model is immutable, so a single instance may be shared by every
// actor's feature buffer.
package svm

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrMalformedModel is returned when a model file cannot be parsed.
	ErrMalformedModel = errors.New("malformed svm model")
	// ErrUnsupportedModel is returned for model types that cannot classify.
	ErrUnsupportedModel = errors.New("unsupported svm model")
)

// Type is the LIBSVM svm_type.
type Type string

const (
	CSVC  Type = "c_svc"
	NuSVC Type = "nu_svc"
)

// Kernel is the LIBSVM kernel_type.
type Kernel string

const (
	Linear     Kernel = "linear"
	Polynomial Kernel = "polynomial"
	RBF        Kernel = "rbf"
	Sigmoid    Kernel = "sigmoid"
)

// Params are the kernel parameters stored in the model header.
type Params struct {
	Type   Type
	Kernel Kernel
	Degree int
	Gamma  float64
	Coef0  float64
}

// Model is a trained multi-class SVM.
type Model struct {
	params  Params
	labels  []int       // class label per class index
	nSV     []int       // support vectors per class
	start   []int       // offset of each class's first support vector
	rho     []float64   // one per class pair
	coef    [][]float64 // [nrClass-1][totalSV]
	sv      [][]float64 // dense support vectors
	svNorm  []float64   // squared norm of each support vector
	dim     int
	probA   []float64
	probB   []float64
}

// Params returns the kernel parameters of the model.
func (m *Model) Params() Params {
	return m.params
}

// Classes returns the class labels in model order.
func (m *Model) Classes() []int {
	return append([]int(nil), m.labels...)
}

// NumSupportVectors returns the total number of support vectors.
func (m *Model) NumSupportVectors() int {
	return len(m.sv)
}

// Dim returns the highest feature index referenced by a support vector.
func (m *Model) Dim() int {
	return m.dim
}

// HasProbability reports whether the model carries probability estimates.
func (m *Model) HasProbability() bool {
	return len(m.probA) > 0 && len(m.probB) > 0
}

// Predict returns the class label for a dense feature vector. features[i]
// is LIBSVM feature index i+1. It is safe for concurrent use.
func (m *Model) Predict(features []float64) int {
	label, _ := m.PredictValues(features)
	return label
}

// PredictValues returns the predicted label and the pairwise decision
// values in LIBSVM order (0v1, 0v2, ..., 1v2, ...).
func (m *Model) PredictValues(features []float64) (int, []float64) {
	nrClass := len(m.labels)
	kvalue := make([]float64, len(m.sv))
	xx := floats.Dot(features, features)
	for i := range m.sv {
		kvalue[i] = m.kernel(features, xx, i)
	}

	vote := make([]int, nrClass)
	decision := make([]float64, 0, nrClass*(nrClass-1)/2)
	p := 0
	for i := 0; i < nrClass; i++ {
		for j := i + 1; j < nrClass; j++ {
			si, sj := m.start[i], m.start[j]
			ci, cj := m.nSV[i], m.nSV[j]
			coef1 := m.coef[j-1]
			coef2 := m.coef[i]

			sum := floats.Dot(coef1[si:si+ci], kvalue[si:si+ci]) +
				floats.Dot(coef2[sj:sj+cj], kvalue[sj:sj+cj])
			sum -= m.rho[p]
			decision = append(decision, sum)

			if sum > 0 {
				vote[i]++
			} else {
				vote[j]++
			}
			p++
		}
	}

	best := 0
	for i := 1; i < nrClass; i++ {
		if vote[i] > vote[best] {
			best = i
		}
	}
	return m.labels[best], decision
}

// kernel evaluates K(x, sv[i]). xx is the squared norm of x.
func (m *Model) kernel(x []float64, xx float64, i int) float64 {
	sv := m.sv[i]
	n := len(x)
	if len(sv) < n {
		n = len(sv)
	}
	dot := floats.Dot(x[:n], sv[:n])

	switch m.params.Kernel {
	case Linear:
		return dot
	case Polynomial:
		return math.Pow(m.params.Gamma*dot+m.params.Coef0, float64(m.params.Degree))
	case RBF:
		d := xx + m.svNorm[i] - 2*dot
		if d < 0 {
			d = 0
		}
		return math.Exp(-m.params.Gamma * d)
	case Sigmoid:
		return math.Tanh(m.params.Gamma*dot + m.params.Coef0)
	default:
		return 0
	}
}
