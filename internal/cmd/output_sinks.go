package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
)

// outputSink is where a command writes its rendered result. path is "-"
// for the command's stdout.
type outputSink struct {
	writer io.Writer
	close  func() error
	path   string
}

var errOutputFlagsConflict = errors.New("--out and --out-dir are mutually exclusive")

// unsafeNameChars covers anything not allowed in a generated file name, so
// GraphQL operation names like GetItemsByIDs become getitemsbyids.
var unsafeNameChars = regexp.MustCompile(`[^a-z0-9._-]+`)

func outputFileName(name, ext string) string {
	base := unsafeNameChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	base = strings.Trim(base, "-.")
	if base == "" {
		base = "output"
	}
	if ext == "" {
		return base
	}
	return base + "." + ext
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("out", "", "write output to a file (default stdout)")
	cmd.Flags().String("out-dir", "", "write output into a directory, one file per command")
}

// commandSink opens the destination chosen by --out or --out-dir. With
// --out-dir the file is named after name and ext.
func commandSink(cmd *cobra.Command, name, ext string) (*outputSink, error) {
	outPath, _ := cmd.Flags().GetString("out")
	outDir, _ := cmd.Flags().GetString("out-dir")
	outPath, outDir = strings.TrimSpace(outPath), strings.TrimSpace(outDir)

	switch {
	case outPath != "" && outDir != "":
		return nil, errOutputFlagsConflict
	case outDir != "":
		abs, err := filepath.Abs(outDir)
		if err != nil {
			abs = outDir
		}
		return fileSink(filepath.Join(abs, outputFileName(name, ext)))
	case outPath == "" || outPath == "-":
		return &outputSink{writer: cmd.OutOrStdout(), close: func() error { return nil }, path: "-"}, nil
	default:
		return fileSink(outPath)
	}
}

func fileSink(path string) (*outputSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return &outputSink{writer: file, close: file.Close, path: path}, nil
}
