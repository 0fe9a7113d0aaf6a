// Command alttab-summary tallies notable event occurrences per student
// from an exported events CSV and writes a summary CSV.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/primusr/alttab/pkg/summary"
)

func main() {
	var (
		in         = flag.String("in", "", "input events CSV (required)")
		out        = flag.String("out", "", "output summary CSV (default stdout)")
		studentCol = flag.String("student-col", "", `student identifier column (default "Student ID")`)
		eventCol   = flag.String("event-col", "", `event type column (default "Raw Event Type")`)
	)
	flag.Parse()

	if *in == "" {
		fmt.Fprintln(os.Stderr, "error: -in is required")
		flag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(*in)
	if err != nil {
		log.Fatalf("open input: %v", err)
	}
	defer f.Close()

	opts := summary.DefaultOptions()
	if *studentCol != "" {
		opts.StudentColumn = *studentCol
	}
	if *eventCol != "" {
		opts.EventColumn = *eventCol
	}

	rows, err := summary.Summarize(f, opts)
	if err != nil {
		log.Fatalf("summarize %s: %v", *in, err)
	}

	var w io.Writer = os.Stdout
	if *out != "" {
		outFile, err := os.Create(*out)
		if err != nil {
			log.Fatalf("create output: %v", err)
		}
		defer outFile.Close()
		w = outFile
	}

	if err := summary.WriteCSV(w, opts.StudentColumn, rows); err != nil {
		log.Fatalf("write summary: %v", err)
	}

	if *out != "" {
		log.Printf("summarized %d student(s) into %s", len(rows), *out)
	}
}
