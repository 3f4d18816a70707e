// Command phrasal aligns sentence-aligned parallel corpora into a
// phrase table, or merges pre-generated alignment files.
//
// Basic usage:
//
//	phrasal corpus.fr-en >table.txt
//	phrasal -m table1.txt table2.txt.gz >merged.txt
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cognicore/phrasal/internal/logging"
	"github.com/cognicore/phrasal/pkg/phrasal"
	"github.com/cognicore/phrasal/pkg/phrasal/config"
	"github.com/cognicore/phrasal/pkg/phrasal/store"
	"github.com/cognicore/phrasal/pkg/phrasal/store/sqlite"
)

func main() {
	var (
		merge      = flag.Bool("m", false, "Merge pre-generated alignment files instead of aligning")
		newAligns  = flag.Int("a", -1, "Stop when new alignments per second drops to this value (-1: run until interrupted)")
		indexN     = flag.Int("i", 1, "Consider n-grams up to this order as extraction units")
		maxSent    = flag.Int("S", 0, "Maximum input lines loaded in memory at once (0: all)")
		timeout    = flag.Float64("t", -1, "Stop alignment after this many seconds (-1: no limit)")
		lexWeights = flag.Bool("w", false, "Compute lexical weights")
		fields     = flag.String("D", "", "Allow discontiguous phrases in these languages (cut-style field list, e.g. \"1,3-5\")")
		minLang    = flag.Int("l", 0, "Minimum language coverage per alignment (0: all languages)")
		minSize    = flag.Int("n", 1, "Minimum phrase size")
		maxSize    = flag.Int("N", 7, "Maximum phrase size (0: unlimited)")
		delimiter  = flag.String("d", "", "Delimiter shown inside discontiguous phrases (implies -D- if -D is absent)")
		encoding   = flag.String("e", "utf-8", "Input encoding label for html/tmx output")
		languages  = flag.String("L", "", "Comma-separated language labels for html/tmx output")
		format     = flag.String("o", "plain", "Output format: plain, moses, html, or tmx")
		tempDir    = flag.String("T", "", "Directory for temporary files (default: OS dependent)")
		quiet      = flag.Bool("q", false, "Do not log progress")
		confPath   = flag.String("config", "", "YAML profile file; explicit flags override its values")
		dbPath     = flag.String("db", "", "Also record the phrase table in this SQLite database")
	)
	flag.Parse()

	profile := config.Default()
	if *confPath != "" {
		var err error
		if profile, err = config.Load(*confPath); err != nil {
			fatal(err)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "m":
			profile.Merge = *merge
		case "a":
			profile.NewAlignments = *newAligns
		case "i":
			profile.IndexNgrams = *indexN
		case "S":
			profile.MaxSentences = *maxSent
		case "t":
			profile.Timeout = *timeout
		case "w":
			profile.LexWeights = *lexWeights
		case "D":
			profile.DiscontiguousFields = *fields
		case "l":
			profile.MinLanguages = *minLang
		case "n":
			profile.MinSize = *minSize
		case "N":
			profile.MaxSize = *maxSize
		case "d":
			profile.Delimiter = *delimiter
		case "e":
			profile.Encoding = *encoding
		case "L":
			profile.Languages = *languages
		case "o":
			profile.Format = *format
		case "T":
			profile.TempDir = *tempDir
		case "q":
			profile.Quiet = *quiet
		case "db":
			profile.StoreDB = *dbPath
		}
	})

	if err := profile.Validate(); err != nil {
		fatal(err)
	}
	logger := logging.Setup(profile.Quiet)

	inputs := flag.Args()
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}
	stdinCount := 0
	for _, path := range inputs {
		if path == "-" {
			stdinCount++
		}
	}
	if stdinCount > 1 {
		fatal(fmt.Errorf("standard input %q can only be read once", "-"))
	}

	writer, err := phrasal.NewWriter(profile.Format, os.Stdout, profile.Encoding, profile.Languages)
	if err != nil {
		fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st store.Store
	if profile.StoreDB != "" {
		if st, err = sqlite.Open(ctx, profile.StoreDB); err != nil {
			fatal(err)
		}
		defer st.Close()
	}

	if profile.Merge {
		mergeLogger := logging.WithComponent(logger, "merge")
		if err := phrasal.Merge(ctx, inputs, writer, st, profile.TempDir, mergeLogger); err != nil {
			fatal(err)
		}
		return
	}

	aligner, err := phrasal.NewAligner(phrasal.Options{
		Inputs:  inputs,
		Writer:  writer,
		Store:   st,
		Profile: profile,
		Rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
		Logger:  logger,
	})
	if err != nil {
		fatal(err)
	}
	if err := aligner.Run(ctx); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "phrasal:", err)
	os.Exit(1)
}
