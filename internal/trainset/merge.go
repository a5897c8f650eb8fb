package trainset

import (
	"fmt"
	"io"
	"os"
)

// Merge copies every source to dst byte for byte, in order.
func Merge(dst io.Writer, srcs ...io.Reader) (int64, error) {
	var total int64
	for i, src := range srcs {
		n, err := io.Copy(dst, src)
		total += n
		if err != nil {
			return total, fmt.Errorf("merge source %d: %w", i, err)
		}
	}
	return total, nil
}

// MergeFiles concatenates the files in srcs into dst, replacing dst.
func MergeFiles(dst string, srcs []string) (int64, error) {
	out, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dst, err)
	}

	var total int64
	for _, path := range srcs {
		n, err := appendFile(out, path)
		total += n
		if err != nil {
			out.Close()
			return total, err
		}
	}
	if err := out.Close(); err != nil {
		return total, fmt.Errorf("close %s: %w", dst, err)
	}
	return total, nil
}

func appendFile(dst io.Writer, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	n, err := Merge(dst, f)
	if err != nil {
		return n, fmt.Errorf("copy %s: %w", path, err)
	}
	return n, nil
}
