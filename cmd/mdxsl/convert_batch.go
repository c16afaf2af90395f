package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	mdxsl "github.com/alnah/go-mdxsl"
	"github.com/alnah/go-mdxsl/internal/fileutil"
)

// Sentinel errors for batch operations.
var (
	ErrNoInput      = errors.New("no input specified")
	ErrReadCSS      = errors.New("failed to read CSS file")
	ErrReadSource   = errors.New("failed to read source file")
	ErrWriteOutput  = errors.New("failed to write output file")
	ErrServiceInit  = errors.New("failed to initialize converter")
	ErrNoOutput     = errors.New("conversion produced no output")
	ErrInvalidParam = errors.New("invalid stylesheet parameter")

	// ErrOutputCollision is returned when two instances of one source map
	// to the same output file.
	ErrOutputCollision = errors.New("instances share an output file")
)

// CLIConverter is the interface for the conversion service.
type CLIConverter interface {
	Convert(ctx context.Context, input mdxsl.Input) ([]mdxsl.Result, error)
}

// Compile-time interface implementation check.
var _ CLIConverter = (*mdxsl.Converter)(nil)

// Pool abstracts converter pool operations for testability.
type Pool interface {
	Acquire() (CLIConverter, error)
	Release(CLIConverter)
	Size() int
}

// conversionParams groups the per-document input shared across a batch.
type conversionParams struct {
	template         string
	stylesheetBase   string
	encoding         string
	smartPunctuation bool
	params           map[string]string
	pdf              bool
}

// ConversionResult holds the outcome of a single source file.
type ConversionResult struct {
	InputPath   string
	OutputPaths []string // one per written document
	Err         error
	Duration    time.Duration
}

// convertBatch processes files concurrently using the converter pool.
// Results are in file order.
func convertBatch(ctx context.Context, pool Pool, files []FileToConvert, params *conversionParams) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := min(pool.Size(), len(files))

	results := make([]ConversionResult, len(files))
	var wg sync.WaitGroup
	jobs := make(chan int, len(files))

	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()

			conv, err := pool.Acquire()
			if err != nil {
				// Converter creation failed, mark remaining jobs as failed
				for idx := range jobs {
					results[idx] = ConversionResult{
						InputPath: files[idx].InputPath,
						Err:       fmt.Errorf("%w: %w", ErrServiceInit, err),
					}
				}
				return
			}
			defer pool.Release(conv)

			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = ConversionResult{
						InputPath: files[idx].InputPath,
						Err:       ctx.Err(),
					}
					continue
				}
				results[idx] = convertFile(ctx, conv, files[idx], params)
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// convertFile converts one source file and writes every result document.
func convertFile(ctx context.Context, conv CLIConverter, f FileToConvert, params *conversionParams) ConversionResult {
	start := time.Now()
	result := ConversionResult{InputPath: f.InputPath}
	fail := func(err error) ConversionResult {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	source, err := os.ReadFile(f.InputPath) // #nosec G304 -- discovered path
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrReadSource, err))
	}

	docs, err := conv.Convert(ctx, mdxsl.Input{
		SourcePath:       f.InputPath,
		Source:           source,
		SmartPunctuation: params.smartPunctuation,
		Encoding:         params.encoding,
		Template:         params.template,
		StylesheetBase:   params.stylesheetBase,
		Params:           params.params,
	})
	if err != nil {
		return fail(err)
	}
	if len(docs) == 0 {
		return fail(ErrNoOutput)
	}

	paths := make([]string, len(docs))
	owner := make(map[string]string, len(docs))
	for i, doc := range docs {
		paths[i] = f.OutputPath
		if doc.Name != "" {
			paths[i] = instanceOutputPath(f.OutputPath, doc.Name)
		}
		if prev, ok := owner[paths[i]]; ok {
			return fail(fmt.Errorf("%w: %q and %q both write %s", ErrOutputCollision, prev, doc.Name, paths[i]))
		}
		owner[paths[i]] = doc.Name
	}

	for i, doc := range docs {
		path := paths[i]
		data := doc.XML
		if params.pdf {
			data = doc.PDF
		}

		if err := fileutil.WriteFile(path, data); err != nil {
			return fail(fmt.Errorf("%w: %w", ErrWriteOutput, err))
		}
		result.OutputPaths = append(result.OutputPaths, path)
	}

	result.Duration = time.Since(start)
	return result
}

// ResultSummary holds the count of succeeded and failed conversions.
type ResultSummary struct {
	Succeeded int
	Failed    int
}

// countResults tallies succeeded and failed conversions.
func countResults(results []ConversionResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// firstError returns the first failure in file order, or nil.
func firstError(results []ConversionResult) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

// printResultsWithWriter outputs conversion results and returns the
// number of failures.
func printResultsWithWriter(results []ConversionResult, quiet, verbose bool, env *Environment) int {
	summary := countResults(results)

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			continue
		}

		if quiet {
			continue
		}

		for _, out := range r.OutputPaths {
			if verbose {
				fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.InputPath, out, r.Duration.Round(time.Millisecond))
			} else {
				fmt.Fprintf(env.Stdout, "Created %s\n", out)
			}
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	return summary.Failed
}
