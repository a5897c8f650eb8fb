package svm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// maxLineSize bounds a single support vector line.
const maxLineSize = 4 * 1024 * 1024

// Load reads a LIBSVM model file from disk.
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()

	m, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	return m, nil
}

// header collects the model header before the SV section.
type header struct {
	params  Params
	nrClass int
	totalSV int
	rho     []float64
	labels  []int
	nSV     []int
	probA   []float64
	probB   []float64
}

// Decode parses a LIBSVM model in its text format.
func Decode(r io.Reader) (*Model, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	h, line, err := decodeHeader(scanner)
	if err != nil {
		return nil, err
	}
	if err := h.validate(); err != nil {
		return nil, err
	}

	m := &Model{
		params: h.params,
		labels: h.labels,
		nSV:    h.nSV,
		rho:    h.rho,
		probA:  h.probA,
		probB:  h.probB,
		start:  make([]int, h.nrClass),
		coef:   make([][]float64, h.nrClass-1),
		sv:     make([][]float64, 0, h.totalSV),
		svNorm: make([]float64, 0, h.totalSV),
	}
	for i := 1; i < h.nrClass; i++ {
		m.start[i] = m.start[i-1] + h.nSV[i-1]
	}
	for i := range m.coef {
		m.coef[i] = make([]float64, 0, h.totalSV)
	}

	type sparse struct {
		idx []int
		val []float64
	}
	vectors := make([]sparse, 0, h.totalSV)

	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if len(vectors) == h.totalSV {
			return nil, fmt.Errorf("%w: line %d: more than %d support vectors", ErrMalformedModel, line, h.totalSV)
		}

		fields := strings.Fields(text)
		if len(fields) < h.nrClass-1 {
			return nil, fmt.Errorf("%w: line %d: expected %d coefficients", ErrMalformedModel, line, h.nrClass-1)
		}
		for k := 0; k < h.nrClass-1; k++ {
			c, err := strconv.ParseFloat(fields[k], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: coefficient %q", ErrMalformedModel, line, fields[k])
			}
			m.coef[k] = append(m.coef[k], c)
		}

		var v sparse
		for _, pair := range fields[h.nrClass-1:] {
			idxStr, valStr, ok := strings.Cut(pair, ":")
			if !ok {
				return nil, fmt.Errorf("%w: line %d: feature %q", ErrMalformedModel, line, pair)
			}
			idx, err := strconv.Atoi(idxStr)
			if err != nil || idx < 1 {
				return nil, fmt.Errorf("%w: line %d: feature index %q", ErrMalformedModel, line, idxStr)
			}
			val, err := strconv.ParseFloat(valStr, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: feature value %q", ErrMalformedModel, line, valStr)
			}
			v.idx = append(v.idx, idx)
			v.val = append(v.val, val)
			if idx > m.dim {
				m.dim = idx
			}
		}
		vectors = append(vectors, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	if len(vectors) != h.totalSV {
		return nil, fmt.Errorf("%w: expected %d support vectors, got %d", ErrMalformedModel, h.totalSV, len(vectors))
	}

	for _, v := range vectors {
		dense := make([]float64, m.dim)
		for k, idx := range v.idx {
			dense[idx-1] = v.val[k]
		}
		m.sv = append(m.sv, dense)
		m.svNorm = append(m.svNorm, floats.Dot(dense, dense))
	}

	return m, nil
}

// decodeHeader reads key/value lines up to and including "SV". It returns
// the number of lines consumed.
func decodeHeader(scanner *bufio.Scanner) (*header, int, error) {
	h := &header{}
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		key, args := fields[0], fields[1:]
		if key == "SV" {
			return h, line, nil
		}

		var err error
		switch key {
		case "svm_type":
			if len(args) != 1 {
				err = fmt.Errorf("svm_type needs one value")
				break
			}
			h.params.Type = Type(args[0])
		case "kernel_type":
			if len(args) != 1 {
				err = fmt.Errorf("kernel_type needs one value")
				break
			}
			h.params.Kernel = Kernel(args[0])
		case "degree":
			h.params.Degree, err = parseInt(args)
		case "gamma":
			h.params.Gamma, err = parseFloat(args)
		case "coef0":
			h.params.Coef0, err = parseFloat(args)
		case "nr_class":
			h.nrClass, err = parseInt(args)
		case "total_sv":
			h.totalSV, err = parseInt(args)
		case "rho":
			h.rho, err = parseFloats(args)
		case "label":
			h.labels, err = parseInts(args)
		case "probA":
			h.probA, err = parseFloats(args)
		case "probB":
			h.probB, err = parseFloats(args)
		case "nr_sv":
			h.nSV, err = parseInts(args)
		default:
			err = fmt.Errorf("unknown key %q", key)
		}
		if err != nil {
			return nil, line, fmt.Errorf("%w: line %d: %v", ErrMalformedModel, line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, line, fmt.Errorf("read model: %w", err)
	}
	return nil, line, fmt.Errorf("%w: missing SV section", ErrMalformedModel)
}

func (h *header) validate() error {
	switch h.params.Type {
	case CSVC, NuSVC:
	case "":
		return fmt.Errorf("%w: missing svm_type", ErrMalformedModel)
	default:
		return fmt.Errorf("%w: svm_type %s", ErrUnsupportedModel, h.params.Type)
	}

	switch h.params.Kernel {
	case Linear, Polynomial, RBF, Sigmoid:
	case "":
		return fmt.Errorf("%w: missing kernel_type", ErrMalformedModel)
	default:
		return fmt.Errorf("%w: kernel_type %s", ErrUnsupportedModel, h.params.Kernel)
	}

	if h.nrClass < 2 {
		return fmt.Errorf("%w: nr_class %d", ErrMalformedModel, h.nrClass)
	}
	if len(h.labels) != h.nrClass {
		return fmt.Errorf("%w: %d labels for %d classes", ErrMalformedModel, len(h.labels), h.nrClass)
	}
	if len(h.nSV) != h.nrClass {
		return fmt.Errorf("%w: %d nr_sv entries for %d classes", ErrMalformedModel, len(h.nSV), h.nrClass)
	}
	pairs := h.nrClass * (h.nrClass - 1) / 2
	if len(h.rho) != pairs {
		return fmt.Errorf("%w: %d rho values, want %d", ErrMalformedModel, len(h.rho), pairs)
	}

	total := 0
	for _, n := range h.nSV {
		if n < 0 {
			return fmt.Errorf("%w: negative nr_sv", ErrMalformedModel)
		}
		total += n
	}
	if total != h.totalSV {
		return fmt.Errorf("%w: nr_sv sums to %d, total_sv is %d", ErrMalformedModel, total, h.totalSV)
	}
	return nil
}

func parseInt(args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected one value, got %d", len(args))
	}
	return strconv.Atoi(args[0])
}

func parseFloat(args []string) (float64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected one value, got %d", len(args))
	}
	return strconv.ParseFloat(args[0], 64)
}

func parseInts(args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parseFloats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
