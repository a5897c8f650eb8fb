// Package trainset reads and writes training samples in the LIBSVM text
// format and records new samples from a live actor.
package trainset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ayusman/mudra/internal/gesture"
)

// ErrMalformedSample is returned for lines that are not valid samples.
var ErrMalformedSample = errors.New("malformed sample")

// Sample is one labelled feature vector.
type Sample struct {
	Label    gesture.Label
	Features []float64
}

// WriteSample writes "<label> 1:<v1> 2:<v2> ...\n". Feature indexes are
// 1-based.
func WriteSample(w io.Writer, label gesture.Label, features []float64) error {
	var b strings.Builder
	b.Grow(len(features) * 12)
	b.WriteString(strconv.Itoa(label.Class()))
	for i, v := range features {
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(v, 'f', 6, 64))
	}
	b.WriteByte('\n')

	_, err := io.WriteString(w, b.String())
	return err
}

// Reader parses samples one line at a time.
type Reader struct {
	scanner *bufio.Scanner
	line    int
	dim     int
}

// NewReader creates a reader producing dense vectors of at least dim values.
// Missing indexes read as zero.
func NewReader(r io.Reader, dim int) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	return &Reader{scanner: scanner, dim: dim}
}

// Read returns the next sample, or io.EOF.
func (r *Reader) Read() (*Sample, error) {
	for r.scanner.Scan() {
		r.line++
		text := strings.TrimSpace(r.scanner.Text())
		if text == "" {
			continue
		}
		s, err := parseSample(text, r.dim)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.line, err)
		}
		return s, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// ReadAll reads every sample from r as gesture.VectorLen-wide vectors.
func ReadAll(r io.Reader) ([]Sample, error) {
	reader := NewReader(r, gesture.VectorLen)
	var samples []Sample
	for {
		s, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return samples, nil
		}
		if err != nil {
			return nil, err
		}
		samples = append(samples, *s)
	}
}

func parseSample(text string, dim int) (*Sample, error) {
	fields := strings.Fields(text)
	class, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("%w: label %q", ErrMalformedSample, fields[0])
	}

	idx := make([]int, 0, len(fields)-1)
	val := make([]float64, 0, len(fields)-1)
	last := 0
	for _, pair := range fields[1:] {
		is, vs, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("%w: feature %q", ErrMalformedSample, pair)
		}
		i, err := strconv.Atoi(is)
		if err != nil || i <= last {
			return nil, fmt.Errorf("%w: feature index %q", ErrMalformedSample, is)
		}
		v, err := strconv.ParseFloat(vs, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: feature value %q", ErrMalformedSample, vs)
		}
		idx = append(idx, i)
		val = append(val, v)
		last = i
	}

	n := max(dim, last)
	features := make([]float64, n)
	for k, i := range idx {
		features[i-1] = val[k]
	}
	return &Sample{Label: gesture.Label(class), Features: features}, nil
}
