// Package main runs a one-shot segmentation over a CSV file and prints the
// summary as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/matrizrfm/rfm-engine/internal/config"
	"github.com/matrizrfm/rfm-engine/internal/rfm"
)

func main() {
	input := flag.String("input", "", "Path to the transactions CSV file")
	reference := flag.String("reference", "", "Reference date (YYYY-MM-DD), defaults to now")
	configPath := flag.String("config", "", "Path to scoring/segment configuration YAML")
	recordsPath := flag.String("records", "", "Optional path to write per-customer records as JSON")
	flag.Parse()

	if *input == "" {
		log.Fatal("-input is required")
	}

	var ref time.Time
	if *reference != "" {
		parsed, err := time.Parse("2006-01-02", *reference)
		if err != nil {
			log.Fatalf("parse reference date: %v", err)
		}
		ref = parsed
	}

	cfg := config.LoadOrDefault()
	if *configPath != "" {
		loaded, err := config.LoadFromPath(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}

	file, err := os.Open(*input)
	if err != nil {
		log.Fatalf("open input: %v", err)
	}
	defer file.Close()

	table, err := rfm.ReadCSV(file)
	if err != nil {
		log.Fatalf("read csv: %v", err)
	}

	p := rfm.NewPipeline(table)
	bar := progressbar.Default(4)

	if err := p.Preprocess(); err != nil {
		log.Fatalf("preprocess: %v", err)
	}
	_ = bar.Add(1)

	if err := p.ComputeMetrics(ref); err != nil {
		log.Fatalf("compute metrics: %v", err)
	}
	_ = bar.Add(1)

	if err := p.Score(cfg.Scoring); err != nil {
		log.Fatalf("score: %v", err)
	}
	_ = bar.Add(1)

	if err := p.Classify(cfg.RuleSet()); err != nil {
		log.Fatalf("classify: %v", err)
	}
	summary, err := p.Summarize()
	if err != nil {
		log.Fatalf("summarize: %v", err)
	}
	_ = bar.Add(1)

	if *recordsPath != "" {
		data, err := json.MarshalIndent(p.Records(), "", "  ")
		if err != nil {
			log.Fatalf("marshal records: %v", err)
		}
		if err := os.WriteFile(*recordsPath, data, 0o644); err != nil {
			log.Fatalf("write records: %v", err)
		}
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		log.Fatalf("marshal summary: %v", err)
	}
	fmt.Println(string(out))
}
