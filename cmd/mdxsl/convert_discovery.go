package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	mdxsl "github.com/alnah/go-mdxsl"
	"github.com/alnah/go-mdxsl/internal/fileutil"
)

// Sentinel errors for file discovery.
var (
	ErrInvalidExtension   = errors.New("file must have .md, .markdown, or .txt extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrNoSourceFiles      = errors.New("no source files found")
)

// sourceExtensions are the file extensions treated as source documents.
var sourceExtensions = []string{".md", ".markdown", ".txt"}

// FileToConvert represents a single file to process.
type FileToConvert struct {
	InputPath string

	// OutputPath is where an unsplit result goes. Multidoc instances are
	// written next to it, named after the instance.
	OutputPath string
}

// discoverFiles finds all source files to convert. Output files use ext.
func discoverFiles(inputPath, outputDir, ext string) ([]FileToConvert, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if err := validateSourceExtension(inputPath); err != nil {
			return nil, err
		}
		outPath := resolveOutputPath(inputPath, outputDir, "", ext)
		return []FileToConvert{{InputPath: inputPath, OutputPath: outPath}}, nil
	}

	var files []FileToConvert
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() {
			return nil
		}
		if !isSourceFile(path) {
			return nil
		}
		outPath := resolveOutputPath(path, outputDir, inputPath, ext)
		files = append(files, FileToConvert{InputPath: path, OutputPath: outPath})
		return nil
	})

	return files, err
}

// resolveOutputPath determines the output path for a source file.
// An outputDir that already ends in .ext names the output file itself.
func resolveOutputPath(inputPath, outputDir, baseInputDir, ext string) string {
	base := fileutil.ReplaceExt(filepath.Base(inputPath), ext)

	if outputDir == "" {
		return filepath.Join(filepath.Dir(inputPath), base)
	}

	if strings.HasSuffix(outputDir, "."+ext) {
		return outputDir
	}

	if baseInputDir != "" {
		relPath, err := filepath.Rel(baseInputDir, inputPath)
		if err == nil {
			return filepath.Join(outputDir, filepath.Dir(relPath), base)
		}
	}

	return filepath.Join(outputDir, base)
}

// instanceOutputPath returns where a multidoc instance of f is written,
// next to OutputPath. A name that already carries an extension is used as
// given; otherwise the output extension is appended. PDF output always
// ends in .pdf. Path separators in the name are replaced so an instance
// cannot escape the output directory.
func instanceOutputPath(outputPath, name string) string {
	safe := strings.NewReplacer("/", "_", `\`, "_").Replace(name)
	if safe == "." || safe == ".." {
		safe = strings.Repeat("_", len(safe))
	}

	ext := filepath.Ext(outputPath)
	switch nameExt := filepath.Ext(safe); {
	case nameExt == "" || nameExt == safe:
		safe += ext
	case strings.EqualFold(ext, ".pdf") && !strings.EqualFold(nameExt, ".pdf"):
		safe += ext
	}
	return filepath.Join(filepath.Dir(outputPath), safe)
}

// isSourceFile reports whether path has a source document extension.
func isSourceFile(path string) bool {
	return slices.Contains(sourceExtensions, strings.ToLower(filepath.Ext(path)))
}

// validateSourceExtension checks that the file has a source extension.
func validateSourceExtension(path string) error {
	if !isSourceFile(path) {
		return fmt.Errorf("%w: got %q", ErrInvalidExtension, filepath.Ext(path))
	}
	return nil
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > mdxsl.MaxPoolSize {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, mdxsl.MaxPoolSize)
	}
	return nil
}
