package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joseph-ayodele/docextract/internal/bootstrap"
	"github.com/joseph-ayodele/docextract/internal/common"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

type output struct {
	Text             string            `json:"text"`
	Confidence       float64           `json:"confidence"`
	StrategyName     string            `json:"strategyName"`
	CharCount        int               `json:"charCount"`
	ProcessingTimeMs int64             `json:"processingTimeMs"`
	FallbackLevel    int               `json:"fallbackLevel"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

func main() {
	var (
		asJSON = flag.Bool("json", false, "print the result as JSON")
		name   = flag.String("name", "", "original file name (defaults to the path's base name)")
	)
	flag.Parse()
	if flag.NArg() != 1 {
		printError("usage: docextract [-json] [-name original.pdf] <file>\n")
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg, err := common.LoadConfig()
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	logger := bootstrap.NewLogger(cfg.SlogLevel(), false)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Queue.ProcessTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Queue.ProcessTimeout)
		defer cancel()
	}

	stack, err := bootstrap.BuildPipeline(cfg.OCR, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := stack.Close(); err != nil {
			logger.Warn("failed to close cache", "error", err)
		}
	}()

	res, err := stack.Pipeline.ProcessNamed(ctx, path, *name)
	if err != nil {
		logger.Error("extraction failed", "path", path, "error", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(output{
			Text:             res.Text,
			Confidence:       res.Confidence,
			StrategyName:     res.Strategy,
			CharCount:        res.CharCount,
			ProcessingTimeMs: res.ProcessingTimeMs(),
			FallbackLevel:    res.FallbackLevel,
			Metadata:         res.Metadata,
		}); err != nil {
			printError("Error: encode result: %v\n", err)
			os.Exit(1)
		}
		return
	}
	fmt.Printf("strategy:   %s\nconfidence: %.2f\nchars:      %d\ntime:       %dms\n\n%s\n",
		res.Strategy, res.Confidence, res.CharCount, res.ProcessingTimeMs(), res.Text)
}
