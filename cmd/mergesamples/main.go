// Command mergesamples concatenates training files into one.
//
// Usage:
//
//	mergesamples <merged.txt> <file1.txt> <file2.txt>...
package main

import (
	"fmt"
	"os"

	"github.com/ayusman/mudra/internal/trainset"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: mergesamples <merged.txt> <file1.txt> <file2.txt>...")
	}

	n, err := trainset.MergeFiles(args[0], args[1:])
	if err != nil {
		return err
	}
	fmt.Printf("Merged %d files (%d bytes) into %s\n", len(args)-1, n, args[0])
	return nil
}
