package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/MrWong99/scribeclean/internal/config"
	"github.com/MrWong99/scribeclean/internal/dictionary"
	"github.com/MrWong99/scribeclean/internal/transcript"
)

// chunkLines is the number of lines handed to one ProcessBatch call.
const chunkLines = 1024

// maxLineBytes bounds a single input line.
const maxLineBytes = 4 << 20

type cleanOptions struct {
	configPath string
	words      []string
	wordsFile  string
	threshold  float64
	stages     []string
	noFilter   bool
	jobs       int
	jsonOut    bool
}

func newCleanCmd() *cobra.Command {
	var opts cleanOptions
	cmd := &cobra.Command{
		Use:   "clean [files...]",
		Short: "Clean transcripts line by line from files or stdin",
		Long: `clean runs every input line through the post-processing pipeline and
writes one cleaned line per input line to stdout, in input order.

Settings come from --config when given; flags override them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, words, err := opts.build(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			out := bufio.NewWriter(cmd.OutOrStdout())
			defer out.Flush()

			if len(args) == 0 {
				return cleanStream(ctx, cmd.InOrStdin(), out, p, words, opts.jobs, opts.jsonOut)
			}
			for _, path := range args {
				if err := cleanFile(ctx, path, out, p, words, opts.jobs, opts.jsonOut); err != nil {
					return err
				}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "optional YAML configuration file")
	f.StringSliceVar(&opts.words, "words", nil, "custom vocabulary words (comma separated or repeated)")
	f.StringVar(&opts.wordsFile, "words-file", "", "dictionary YAML file with a words: list")
	f.Float64Var(&opts.threshold, "threshold", config.DefaultThreshold, "vocabulary acceptance threshold; lower is stricter")
	f.StringSliceVar(&opts.stages, "stages", nil, "stage order, e.g. vocabulary,filter")
	f.BoolVar(&opts.noFilter, "no-filter", false, "disable the filler and stutter filter")
	f.IntVar(&opts.jobs, "jobs", runtime.GOMAXPROCS(0), "number of lines processed concurrently")
	f.BoolVar(&opts.jsonOut, "json", false, "write one JSON result per line instead of plain text")
	return cmd
}

// build resolves the pipeline and vocabulary from the config file and flags.
func (o *cleanOptions) build(cmd *cobra.Command) (*transcript.Pipeline, []string, error) {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("threshold") {
		th := o.threshold
		cfg.Vocabulary.Threshold = &th
	}
	if flags.Changed("stages") {
		cfg.Pipeline.Stages = o.stages
	}
	if o.noFilter {
		off := false
		cfg.Filter.Enabled = &off
	}
	if _, err := transcript.ParseStages(cfg.Pipeline.Stages); err != nil {
		return nil, nil, err
	}

	// config.Load has already read vocabulary.file relative to the config.
	words := append([]string(nil), cfg.Vocabulary.Words...)
	words = append(words, cfg.Vocabulary.FileWords...)
	if o.wordsFile != "" {
		f, err := dictionary.LoadFile(o.wordsFile)
		if err != nil {
			return nil, nil, err
		}
		words = append(words, f.Words...)
	}
	words = append(words, o.words...)
	words, err := dictionary.NormalizeAll(words)
	if err != nil {
		return nil, nil, fmt.Errorf("vocabulary: %w", err)
	}

	p := transcript.NewPipeline(
		transcript.WithStages(cfg.EffectiveStages()...),
		transcript.WithThreshold(cfg.Vocabulary.ThresholdValue()),
	)
	return p, words, nil
}

func cleanFile(ctx context.Context, path string, w io.Writer, p *transcript.Pipeline, words []string, jobs int, jsonOut bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()
	if err := cleanStream(ctx, f, w, p, words, jobs, jsonOut); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// cleanStream processes r in chunks of lines and writes results in order.
func cleanStream(ctx context.Context, r io.Reader, w io.Writer, p *transcript.Pipeline, words []string, jobs int, jsonOut bool) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	enc := json.NewEncoder(w)
	chunk := make([]string, 0, chunkLines)
	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		results, err := p.ProcessBatch(ctx, chunk, words, jobs)
		if err != nil {
			return err
		}
		for _, res := range results {
			if jsonOut {
				if err := enc.Encode(res); err != nil {
					return err
				}
				continue
			}
			if _, err := fmt.Fprintln(w, res.Text); err != nil {
				return err
			}
		}
		chunk = chunk[:0]
		return nil
	}

	for sc.Scan() {
		chunk = append(chunk, sc.Text())
		if len(chunk) == chunkLines {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return flush()
}
