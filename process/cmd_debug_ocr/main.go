package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"sushida/pkg/ocr"
)

func main() {
	f := flag.String("file", "", "image file to OCR")
	aggressive := flag.Bool("aggressive", false, "use the sharpen/contrast pipeline used by cmd_reparse")
	flag.Parse()
	if *f == "" {
		log.Fatalf("-file required")
	}
	acq := ocr.NewAcquirer()
	if *aggressive {
		acq.Preprocess = ocr.PreprocessAggressive
	}
	ctx := context.Background()
	cands, err := acq.Candidates(ctx, *f)
	if err != nil {
		log.Fatalf("ocr error: %v", err)
	}
	for _, c := range cands {
		if c.Err != nil {
			fmt.Printf("--- %s: error %v\n", c.Pass, c.Err)
			continue
		}
		fmt.Printf("--- %s (%d bytes)\n%s\n", c.Pass, len(c.Text), c.Text)
	}
	ext, err := acq.ExtractScore(ctx, *f)
	if err != nil {
		log.Fatalf("parse error: %v", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(map[string]any{"pass": ext.Pass, "valid": ext.Valid, "problems": ext.Problems, "result": ext.Result})
}
