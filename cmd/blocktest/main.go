// blocktest regenerates every workspace matched by -test-files and compares the
// output for each target against its golden file.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/xplshn/blockc/pkg/block"
	"github.com/xplshn/blockc/pkg/codegen"
	"github.com/xplshn/blockc/pkg/config"
	"github.com/xplshn/blockc/pkg/util"
)

type TargetResult struct {
	Target      string        `json:"target"`
	Status      string        `json:"status"` // PASS, FAIL, SKIP, ERROR
	Message     string        `json:"message,omitempty"`
	Diff        string        `json:"diff,omitempty"`
	Fingerprint string        `json:"fingerprint,omitempty"`
	Duration    time.Duration `json:"duration"`
}

type FileTestResult struct {
	File    string          `json:"file"`
	Hash    string          `json:"hash,omitempty"`
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Targets []*TargetResult `json:"targets,omitempty"`
}

type TestSuiteResults map[string]*FileTestResult

var (
	generateGolden = flag.String("generate-golden", "", "Write golden files for the given workspace (space-separated globs).")
	testFiles      = flag.String("test-files", "testdata/*.json", "Glob pattern(s) for workspaces to test (space-separated).")
	skipFiles      = flag.String("skip-files", "", "Files to skip (space-separated).")
	targets        = flag.String("targets", "ch cpp js", "Targets to generate for each workspace (space-separated).")
	protocol       = flag.String("protocol", config.ProtocolTagged, "Flow protocol used for every run (tagged, or sentinel for the legacy runtime).")
	configFile     = flag.String("config", "", "TOML configuration applied to every run.")
	outputJSON     = flag.String("output", ".test_results.json", "Output file for the JSON test report.")
	jobs           = flag.Int("j", 4, "Number of parallel test jobs.")
	verbose        = flag.Bool("v", false, "Enable verbose logging.")
	useCache       = flag.Bool("cached", false, "Reuse passing results of unchanged workspaces from the previous report.")
	goldenDir      = flag.String("dir", "", "Directory to store/read golden files (defaults to the workspace dir).")
)

const (
	cRed    = "\x1b[91m"
	cYellow = "\x1b[93m"
	cGreen  = "\x1b[92m"
	cCyan   = "\x1b[96m"
	cBold   = "\x1b[1m"
	cNone   = "\x1b[0m"
)

func main() {
	flag.Parse()
	log.SetFlags(0)
	if *jobs < 1 {
		*jobs = 1
	}
	setupInterruptHandler()

	// Generation warnings are noise here; failures are reported per target
	util.SetOutput(io.Discard)

	if *generateGolden != "" {
		handleGenerateGolden(*generateGolden)
		return
	}
	handleRunTestSuite()
}

func setupInterruptHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		<-c
		fmt.Printf("\n%s[INTERRUPT]%s Test run cancelled.\n", cYellow, cNone)
		os.Exit(1)
	}()
}

func newConfig() (*config.Config, error) {
	cfg := config.NewConfig()
	if *configFile != "" {
		if err := cfg.LoadFile(*configFile); err != nil {
			return nil, err
		}
	}
	if err := cfg.SetProtocol(*protocol); err != nil {
		return nil, err
	}
	return cfg, nil
}

func goldenPath(workspace, target string) string {
	base := strings.TrimSuffix(filepath.Base(workspace), filepath.Ext(workspace))
	name := "." + base + "." + target + ".golden"
	if *goldenDir != "" {
		return filepath.Join(*goldenDir, name)
	}
	return filepath.Join(filepath.Dir(workspace), name)
}

// hashFile computes the xxhash of a file's content
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum64()), nil
}

// generate runs one full pass with a fresh generator
func generate(file, target string) (string, error) {
	cfg, err := newConfig()
	if err != nil {
		return "", err
	}
	if err := cfg.SetTarget(target); err != nil {
		return "", err
	}
	lang, err := codegen.LookupLanguage(cfg.Target)
	if err != nil {
		return "", err
	}
	ws, err := block.Load(file)
	if err != nil {
		return "", err
	}
	return codegen.NewGenerator(cfg, lang).Generate(ws)
}

func handleGenerateGolden(patterns string) {
	files, err := expandGlobPatterns(patterns)
	if err != nil {
		log.Fatalf("%s[ERROR]%s Invalid glob pattern(s): %v\n", cRed, cNone, err)
	}
	if *goldenDir != "" {
		if err := os.MkdirAll(*goldenDir, 0755); err != nil {
			log.Fatalf("%s[ERROR]%s Failed to create directory %s: %v\n", cRed, cNone, *goldenDir, err)
		}
	}
	for _, file := range files {
		for _, target := range strings.Fields(*targets) {
			code, err := generate(file, target)
			if err != nil {
				log.Fatalf("%s[ERROR]%s Could not generate %s for %s: %v\n", cRed, cNone, target, file, err)
			}
			golden := goldenPath(file, target)
			if err := os.WriteFile(golden, []byte(code), 0644); err != nil {
				log.Fatalf("%s[ERROR]%s Failed to write golden file %s: %v\n", cRed, cNone, golden, err)
			}
			log.Printf("%s[SUCCESS]%s Golden file created at %s\n", cGreen, cNone, golden)
		}
	}
}

func handleRunTestSuite() {
	files, err := expandGlobPatterns(*testFiles)
	if err != nil {
		log.Fatalf("%s[ERROR]%s Invalid glob pattern(s): %v\n", cRed, cNone, err)
	}
	if len(files) == 0 {
		log.Println("No test files found matching the pattern(s).")
		return
	}
	if _, err := newConfig(); err != nil {
		log.Fatalf("%s[ERROR]%s %v\n", cRed, cNone, err)
	}

	previousResults := make(TestSuiteResults)
	if *useCache {
		if prevData, err := os.ReadFile(reportPath()); err == nil {
			if json.Unmarshal(prevData, &previousResults) != nil {
				log.Printf("%s[WARN]%s Could not parse previous results file %s. Cache will not be used.\n", cYellow, cNone, reportPath())
				previousResults = make(TestSuiteResults)
			}
		}
	}

	skipList := make(map[string]bool)
	for _, f := range strings.Fields(*skipFiles) {
		skipList[f] = true
	}

	type task struct{ file, hash string }
	tasks := make(chan task, len(files))
	resultsChan := make(chan *FileTestResult, len(files))
	var wg sync.WaitGroup

	for i := 0; i < *jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				resultsChan <- testFile(t.file, t.hash, previousResults[t.file])
			}
		}()
	}

	// Feed the tasks channel, skipping files with identical content
	seenHashes := make(map[string]string)
	for _, file := range files {
		if skipList[file] || skipList[filepath.Base(file)] {
			resultsChan <- &FileTestResult{File: file, Status: "SKIP", Message: "Explicitly skipped"}
			continue
		}
		fileHash, err := hashFile(file)
		if err != nil {
			resultsChan <- &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Failed to read file for hashing: %v", err)}
			continue
		}
		if originalFile, seen := seenHashes[fileHash]; seen {
			resultsChan <- &FileTestResult{File: file, Status: "SKIP", Message: fmt.Sprintf("Content is identical to %s", originalFile)}
			continue
		}
		seenHashes[fileHash] = file
		tasks <- task{file, fileHash}
	}
	close(tasks)

	wg.Wait()
	close(resultsChan)

	var allResults []*FileTestResult
	for result := range resultsChan {
		allResults = append(allResults, result)
	}
	sort.Slice(allResults, func(i, j int) bool {
		return allResults[i].File < allResults[j].File
	})

	printSummary(allResults)
	if hasFailures(writeJSONReport(allResults)) {
		os.Exit(1)
	}
}

func testFile(file, fileHash string, previous *FileTestResult) *FileTestResult {
	result := &FileTestResult{File: file, Hash: fileHash}
	for _, target := range strings.Fields(*targets) {
		result.Targets = append(result.Targets, testTarget(file, target, previous))
	}

	result.Status = "SKIP"
	for _, tr := range result.Targets {
		switch {
		case tr.Status == "ERROR":
			result.Status = "ERROR"
		case tr.Status == "FAIL" && result.Status != "ERROR":
			result.Status = "FAIL"
		case tr.Status == "PASS" && result.Status == "SKIP":
			result.Status = "PASS"
		}
	}
	if previous != nil && previous.Hash == fileHash && allCached(result) {
		result.Message = "unchanged since last run"
	}
	return result
}

// testTarget compares one target's output against its golden file. A passing
// previous result is reused when neither the workspace nor the golden changed.
func testTarget(file, target string, previous *FileTestResult) *TargetResult {
	tr := &TargetResult{Target: target}
	golden := goldenPath(file, target)
	want, err := os.ReadFile(golden)
	if err != nil {
		tr.Status, tr.Message = "SKIP", "Cannot test without a corresponding golden file"
		return tr
	}
	goldenHash := codegen.Fingerprint(string(want))

	if prev := previousTarget(previous, file, target); prev != nil && prev.Status == "PASS" && prev.Fingerprint == goldenHash {
		tr.Status, tr.Message, tr.Fingerprint = "PASS", "cached", goldenHash
		return tr
	}

	start := time.Now()
	got, err := generate(file, target)
	tr.Duration = time.Since(start)
	if err != nil {
		tr.Status, tr.Message = "ERROR", err.Error()
		return tr
	}
	tr.Fingerprint = codegen.Fingerprint(got)
	if diff := cmp.Diff(string(want), got); diff != "" {
		tr.Status, tr.Message, tr.Diff = "FAIL", "Output does not match "+filepath.Base(golden), diff
		return tr
	}
	tr.Status, tr.Message = "PASS", "Output matches golden file"
	return tr
}

func previousTarget(previous *FileTestResult, file, target string) *TargetResult {
	if !*useCache || previous == nil {
		return nil
	}
	if hash, err := hashFile(file); err != nil || hash != previous.Hash {
		return nil
	}
	for _, tr := range previous.Targets {
		if tr.Target == target {
			return tr
		}
	}
	return nil
}

func allCached(result *FileTestResult) bool {
	for _, tr := range result.Targets {
		if tr.Message != "cached" {
			return false
		}
	}
	return len(result.Targets) > 0
}

func printSummary(results []*FileTestResult) {
	var passed, failed, skipped, errored int
	var total time.Duration

	for _, result := range results {
		fmt.Println("----------------------------------------------------------------------")
		fmt.Printf("Testing %s%s%s...\n", cCyan, result.File, cNone)

		switch result.Status {
		case "PASS":
			passed++
		case "FAIL":
			failed++
		case "SKIP":
			skipped++
		case "ERROR":
			errored++
		}
		if result.Message != "" || len(result.Targets) == 0 {
			fmt.Printf("  [%s] %s\n", colorStatus(result.Status), result.Message)
		}

		for _, tr := range result.Targets {
			total += tr.Duration
			if tr.Status == "PASS" && !*verbose {
				continue
			}
			fmt.Printf("  [%s] %-4s %s", colorStatus(tr.Status), tr.Target, tr.Message)
			if *verbose && tr.Fingerprint != "" {
				fmt.Printf(" (%s, %s)", tr.Fingerprint, formatDuration(tr.Duration))
			}
			fmt.Println()
			if tr.Status == "FAIL" {
				fmt.Println(formatDiff(tr.Diff))
			}
		}
	}

	fmt.Println("----------------------------------------------------------------------")
	fmt.Printf("%sTest Summary:%s %s%d Passed%s, %s%d Failed%s, %s%d Skipped%s, %s%d Errored%s, %d Total\n",
		cBold, cNone, cGreen, passed, cNone, cRed, failed, cNone, cYellow, skipped, cNone, cRed, errored, cNone, len(results))
	if *verbose {
		fmt.Printf("Generation took %s in total.\n", formatDuration(total))
	}
}

func colorStatus(status string) string {
	switch status {
	case "PASS":
		return cGreen + status + cNone
	case "SKIP":
		return cYellow + status + cNone
	default:
		return cRed + status + cNone
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	return fmt.Sprintf("%.2fms", float64(d.Microseconds())/1000)
}

func formatDiff(diff string) string {
	var sb strings.Builder
	for _, line := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "-"):
			sb.WriteString("    " + cRed + line + cNone + "\n")
		case strings.HasPrefix(trimmed, "+"):
			sb.WriteString("    " + cGreen + line + cNone + "\n")
		default:
			sb.WriteString("    " + line + "\n")
		}
	}
	return sb.String()
}

func reportPath() string {
	if *goldenDir != "" {
		return filepath.Join(*goldenDir, *outputJSON)
	}
	return *outputJSON
}

func writeJSONReport(results []*FileTestResult) TestSuiteResults {
	resultsMap := make(TestSuiteResults, len(results))
	for _, r := range results {
		resultsMap[r.File] = r
	}

	jsonData, err := json.MarshalIndent(resultsMap, "", "  ")
	if err != nil {
		log.Printf("%s[ERROR]%s Failed to marshal results to JSON: %v\n", cRed, cNone, err)
		return resultsMap
	}

	outputFile := reportPath()
	if *goldenDir != "" {
		if err := os.MkdirAll(*goldenDir, 0755); err != nil {
			log.Printf("%s[ERROR]%s Failed to create dir %s: %v\n", cRed, cNone, *goldenDir, err)
		}
	}
	if err := os.WriteFile(outputFile, jsonData, 0644); err != nil {
		log.Printf("%s[ERROR]%s Failed to write JSON report to %s: %v\n", cRed, cNone, outputFile, err)
	} else {
		fmt.Printf("Full test report saved to %s\n", outputFile)
	}
	return resultsMap
}

func hasFailures(results TestSuiteResults) bool {
	for _, result := range results {
		if result.Status == "FAIL" || result.Status == "ERROR" {
			return true
		}
	}
	return false
}

func expandGlobPatterns(patterns string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]bool)
	for _, pattern := range strings.Fields(patterns) {
		files, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %s: %w", pattern, err)
		}
		for _, file := range files {
			absFile, err := filepath.Abs(file)
			if err != nil {
				continue
			}
			if !seen[absFile] {
				if info, err := os.Stat(absFile); err == nil && info.Mode().IsRegular() {
					allFiles = append(allFiles, absFile)
					seen[absFile] = true
				}
			}
		}
	}
	return allFiles, nil
}
