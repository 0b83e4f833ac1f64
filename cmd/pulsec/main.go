package main

import (
	"fmt"
	"os"
	"path/filepath"

	"pulsec/internal/lang"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <input.pulse> [output.json]\n", os.Args[0])
		os.Exit(1)
	}

	inputPath := os.Args[1]

	opts := &lang.CompileOptions{
		EmitBundleJSON: true,
	}
	if len(os.Args) >= 3 {
		opts.BundleOutputPath = os.Args[2]
	}

	svc := lang.NewService()
	bundle, res, err := svc.CompileBundleFile(inputPath, opts)

	for _, d := range bundle.Diagnostics {
		fmt.Fprintln(os.Stderr, d.Error())
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "compile failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("compiled %s -> %d events, duration %dus\n",
		filepath.Base(inputPath), len(res.Timeline.Events), res.Timeline.Duration)
}
