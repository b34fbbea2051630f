// Package main provides a performance benchmarking tool for the dynbike CLI.
// It generates synthetic combined exports of increasing size and measures execution times
// of the batch commands, running each test multiple times, treating the first successful run
// as cold and averaging the rest as warm, and generating CSV output for performance analysis.
//
// Prerequisites:
// - dynbike binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory for the generated inputs and run databases
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-store average, cold run and average of warm runs).
type BenchmarkResult struct {
	Dataset     string
	Command     string
	NoStoreTime string
	ColdTime    string
	WarmTime    string
}

// Dataset describes one generated input.
type Dataset struct {
	Name     string
	Sessions int
	Seconds  int
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir     string
	Timeout     time.Duration
	Workers     int
	NoStoreRuns int
	StoreRuns   int
	Datasets    []Dataset
}

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:     os.Args[1],
		Timeout:     5 * time.Minute,
		Workers:     8,
		NoStoreRuns: 3,
		StoreRuns:   4,
		Datasets: []Dataset{
			{Name: "small", Sessions: 10, Seconds: 3600},
			{Name: "medium", Sessions: 100, Seconds: 3600},
			{Name: "large", Sessions: 400, Seconds: 5400},
		},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the dynbike binary exists and the work dir is usable
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("dynbike"); err != nil {
		return fmt.Errorf("dynbike binary not found in PATH")
	}
	return os.MkdirAll(config.WorkDir, 0o755)
}

// writeDataset generates a pre-cleaned combined export. Each session rides for 90% of its
// length and idles for the rest, so every session carries a trailing flatline.
func writeDataset(dir string, ds Dataset) (string, error) {
	path := filepath.Join(dir, ds.Name+".csv")
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"id_sess", "elapsed_sec", "cadence", "power", "hr"}); err != nil {
		return "", err
	}
	active := ds.Seconds * 9 / 10
	for s := range ds.Sessions {
		key := fmt.Sprintf("SMB%03d_day%d", s/2+1, s%2+1)
		for i := range ds.Seconds {
			cadence, power := 0, 0
			if i < active {
				cadence = 55 + (i*7+s)%31
				power = 100 + (i*3)%80
			}
			rec := []string{key, strconv.Itoa(i), strconv.Itoa(cadence), strconv.Itoa(power), strconv.Itoa(110 + i%40)}
			if err := writer.Write(rec); err != nil {
				return "", err
			}
		}
	}
	writer.Flush()
	return path, writer.Error()
}

// runBenchmarks executes all benchmark tests across configured datasets
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d datasets, %v timeout, %d workers, no-store: %d runs, store: %d runs\n",
		len(config.Datasets), config.Timeout, config.Workers, config.NoStoreRuns, config.StoreRuns)

	for _, ds := range config.Datasets {
		fmt.Printf("Generating %s (%d sessions x %d s)\n", ds.Name, ds.Sessions, ds.Seconds)
		input, err := writeDataset(config.WorkDir, ds)
		if err != nil {
			fmt.Printf("Warning: failed to generate %s: %v\n", ds.Name, err)
			continue
		}

		results = append(results, runBenchmarkSuite(config, ds.Name, input, "trim", "batch trim"))
		results = append(results, runBenchmarkSuite(config, ds.Name, input, "check", "sequence check"))
	}

	return results
}

// runBenchmarkSuite runs both no-store and run-store benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, dataset, input, command, description string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", description, dataset)

	// Helper to run a benchmark phase
	runPhase := func(runBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, input, command, runBackend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	// Phase 1: runs are not recorded
	_, noStoreAvg := runPhase("none", config.NoStoreRuns, "No-store")

	// Phase 2: runs are recorded in SQLite
	coldTime, warmAvg := runPhase("sqlite", config.StoreRuns, "Store")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-store average: %s, Cold time: %s, Warm average: %s\n", noStoreAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Dataset:     dataset,
		Command:     command,
		NoStoreTime: noStoreAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a dynbike command multiple times with the given run backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, input, command, runBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := []string{
		command, input,
		"--workers", strconv.Itoa(config.Workers),
		"--run-backend", runBackend,
		"--session-backend", "none",
		"--color", "no",
	}
	if runBackend == "sqlite" {
		args = append(args, "--run-db-connect", filepath.Join(config.WorkDir, "runs.db"))
	}

	var times []float64
	for range numRuns {
		start := time.Now()

		cmd := exec.Command("dynbike", args...)
		cmd.Dir = config.WorkDir

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output, command) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			// Timeout - don't add to times
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte, command string) bool {
	outputStr := string(output)
	if command == "check" {
		return strings.Contains(outputStr, "series are sequential. Checked in")
	}
	return strings.Contains(outputStr, "Completed in") && strings.Contains(outputStr, "workers")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("dynbike_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"dataset", "cmd", "no_store_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Dataset, result.Command, result.NoStoreTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	printCommandSummary(results, "trim", "Batch Trim:")
	printCommandSummary(results, "check", "Sequence Check:")
}

// printCommandSummary displays results for a specific command type
func printCommandSummary(results []BenchmarkResult, command, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Command == command {
			fmt.Printf("  %-8s: No-store: %s, Cold: %s, Warm: %s\n", result.Dataset, result.NoStoreTime, result.ColdTime, result.WarmTime)
		}
	}
}
