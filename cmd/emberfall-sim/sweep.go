package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"emberfall/sim/internal/batch"
	"emberfall/sim/internal/config"
	"emberfall/sim/internal/logging"
	"emberfall/sim/internal/logging/sinks"
	"emberfall/sim/internal/sampler"
	"emberfall/sim/internal/simrand"
)

func newSweepCmd() *cobra.Command {
	var (
		configPath string
		samples    int
		rounds     int
		workers    int
		method     string
		seed       string
		eventsPath string
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run a batch balance sweep over sampled parameter sets",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(configPath)
			if err != nil {
				return err
			}
			if seed != "" {
				doc.Seed = seed
			}

			var points []map[string]float64
			switch method {
			case "stratified":
				points = sampler.Stratified(doc.Params, samples, simrand.New(doc.Seed, "sampler"))
			case "lowdiscrepancy":
				points = sampler.LowDiscrepancy(doc.Params, samples)
			default:
				return fmt.Errorf("unknown sampling method %q (want stratified or lowdiscrepancy)", method)
			}

			pub, eventLog, closeRouter, err := buildPublisher(eventsPath)
			if err != nil {
				return err
			}
			defer closeRouter()

			runner := batch.NewRunner(doc, rounds, pub)
			started := time.Now()
			results, summary, err := runner.RunSweep(context.Background(), points, workers)
			if err != nil {
				return err
			}

			fmt.Printf("swept %d trials in %s (%d rounds each, %s sampling)\n\n",
				summary.Trials, time.Since(started).Round(time.Millisecond), rounds, method)
			printSummary(summary)
			printTrials(results)
			printEventCounts(eventLog)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "trial configuration YAML (built-in defaults when empty)")
	cmd.Flags().IntVar(&samples, "samples", 16, "number of parameter sets to sample")
	cmd.Flags().IntVar(&rounds, "rounds", 20, "economy rounds per trial")
	cmd.Flags().IntVar(&workers, "workers", 4, "parallel trial workers")
	cmd.Flags().StringVar(&method, "method", "stratified", "sampling method: stratified or lowdiscrepancy")
	cmd.Flags().StringVar(&seed, "seed", "", "override the document seed")
	cmd.Flags().StringVar(&eventsPath, "events", "", "write JSON-lines event log to this path")
	return cmd
}

func loadDocument(path string) (config.Document, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// eventLogRetention caps how many events the in-process tail keeps around;
// full history still lands in the JSON-lines file.
const eventLogRetention = 512

func buildPublisher(eventsPath string) (logging.Publisher, *sinks.MemorySink, func(), error) {
	if eventsPath == "" {
		return logging.NopPublisher(), nil, func() {}, nil
	}
	file, err := os.Create(eventsPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create events file: %w", err)
	}
	eventLog := sinks.NewMemorySink(eventLogRetention)
	router := logging.NewRouter(nil, logging.Config{MinimumSeverity: logging.SeverityInfo}, []logging.NamedSink{
		{Name: "json", Sink: sinks.NewJSON(file, 0)},
		{Name: "memory", Sink: eventLog},
	})
	closer := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		router.Close(ctx)
		file.Close()
	}
	return router, eventLog, closer, nil
}

func printEventCounts(eventLog *sinks.MemorySink) {
	if eventLog == nil {
		return
	}
	counts := eventLog.CategoryCounts()
	if len(counts) == 0 {
		return
	}
	categories := make([]string, 0, len(counts))
	for category := range counts {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	parts := make([]string, 0, len(categories))
	for _, category := range categories {
		parts = append(parts, fmt.Sprintf("%s=%d", category, counts[category]))
	}
	fmt.Printf("\nevents: %s\n", strings.Join(parts, " "))
}

func printSummary(summary batch.Summary) {
	keys := make([]string, 0, len(summary.Metrics))
	for key := range summary.Metrics {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Metric", "Mean"}),
	)
	for _, key := range keys {
		table.Append([]string{key, fmt.Sprintf("%.4f", summary.Metrics[key])})
	}
	table.Render()
}

func printTrials(results []batch.TrialResult) {
	fmt.Println("\nPer-trial snapshot:")
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Trial", "Seed", "AvgGold", "ComebackRate", "Diversity"}),
	)
	for _, result := range results {
		table.Append([]string{
			fmt.Sprintf("%d", result.Index),
			result.Seed,
			fmt.Sprintf("%.2f", result.Metrics["avgGoldPerRound"]),
			fmt.Sprintf("%.2f", result.Metrics["comebackRate"]),
			fmt.Sprintf("%.2f", result.Metrics["compositionDiversity"]),
		})
	}
	table.Render()
}
