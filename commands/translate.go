package commands

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/OpenDaL/ingestion-and-transformation/config"
	"github.com/OpenDaL/ingestion-and-transformation/record"
	"github.com/OpenDaL/ingestion-and-transformation/translate"
)

// maxLineSize bounds one NDJSON line. Harvested descriptions occasionally
// embed whole HTML pages.
const maxLineSize = 16 * 1024 * 1024

func translateCmd(configDir *string) *cobra.Command {
	var (
		outputPath  string
		diagnostics bool
	)

	cmd := &cobra.Command{
		Use:   "translate [pattern...]",
		Short: "Translate structured records from NDJSON files",
		Long: `Translate reads structured records from the NDJSON files matching the
given glob patterns (doublestar syntax, e.g. 'data/**/*.jsonl') and writes
one canonical record per input record. Without patterns it reads stdin.

A record that yields no acceptable field at all is dropped. Rejected and
truncated fields within a record are logged per record at debug level and
summarized when the run completes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewLoader(slog.Default()).Load(*configDir)
			if err != nil {
				return err
			}
			engine, err := translate.New(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outputPath != "" {
				f, err := os.Create(outputPath)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer f.Close()
				out = f
			}
			w := bufio.NewWriter(out)
			defer w.Flush()

			runner := &translateRun{
				engine:      engine,
				out:         w,
				diagnostics: diagnostics,
			}

			if len(args) == 0 {
				if err := runner.processReader("stdin", cmd.InOrStdin()); err != nil {
					return err
				}
			} else {
				files, err := expandPatterns(args)
				if err != nil {
					return err
				}
				for _, path := range files {
					if err := runner.processFile(path); err != nil {
						return err
					}
				}
			}

			slog.Info("translation finished",
				"records_in", runner.inCount,
				"records_out", runner.outCount,
				"fields", runner.fieldCount,
				"diagnostics", runner.diagCount,
			)
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&diagnostics, "diagnostics", false, "Include the per-record diagnostics in the output")
	return cmd
}

// expandPatterns resolves the glob patterns into a sorted, deduplicated
// file list. A pattern that matches nothing is an error: in batch runs a
// silently empty input hides upstream harvest failures.
func expandPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("pattern %q matches no files", pattern)
		}
		for _, m := range matches {
			if _, dup := seen[m]; !dup {
				seen[m] = struct{}{}
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

type translateRun struct {
	engine      *translate.Engine
	out         *bufio.Writer
	diagnostics bool

	inCount    int
	outCount   int
	fieldCount int
	diagCount  int
}

func (r *translateRun) processFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()
	return r.processReader(path, f)
}

func (r *translateRun) processReader(name string, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec record.Structured
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("%s line %d: %w", name, line, err)
		}
		if err := r.translate(rec); err != nil {
			return fmt.Errorf("%s line %d: %w", name, line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	return nil
}

func (r *translateRun) translate(rec record.Structured) error {
	r.inCount++
	out, log := r.engine.Translate(rec)
	r.fieldCount += len(out)
	r.diagCount += len(log.Entries)
	if len(out) == 0 {
		slog.Debug("record dropped, no acceptable field", "id", log.ID)
		return nil
	}
	r.outCount++

	var line any = out
	if r.diagnostics {
		line = map[string]any{
			"id":          log.ID,
			"record":      out,
			"diagnostics": log.Entries,
		}
	}
	encoded, err := json.Marshal(line)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if _, err := r.out.Write(append(encoded, '\n')); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}
