package main

import (
	"flag"
	"fmt"
	"os"

	"propquery/internal/learning"
	"propquery/internal/reporter"
)

func main() {
	storePath := flag.String("store", "learning.db", "Learning store file")
	withRecs := flag.Bool("recommendations", true, "Include recommendations")
	flag.Parse()

	store, err := learning.Open(*storePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: open learning store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	rep := reporter.New(store)

	report, err := rep.PerformanceReport()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(report)

	if *withRecs {
		recs, err := rep.Recommendations()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("\nRecommendations:")
		for _, r := range recs {
			fmt.Printf("  - %s\n", r)
		}
	}
}
