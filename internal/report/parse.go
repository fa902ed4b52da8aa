package report

import (
	"bufio"
	"encoding/json"
	"io"
	"sort"
	"strings"
	"time"
)

// event is one line of the go test -json stream.
type event struct {
	Time    time.Time `json:"Time"`
	Action  string    `json:"Action"`
	Package string    `json:"Package"`
	Test    string    `json:"Test"`
	Elapsed float64   `json:"Elapsed"`
	Output  string    `json:"Output"`
}

// TestResult is the final state of one test.
type TestResult struct {
	Package string
	Name    string
	Status  string // "pass", "fail" or "skip"
	Elapsed float64
	Output  string
}

// PackageResult groups a package's tests with its own outcome.
type PackageResult struct {
	Name    string
	Status  string
	Elapsed float64
	Tests   []TestResult
}

// Summary is everything the report template needs.
type Summary struct {
	GeneratedAt time.Time
	Passed      int
	Failed      int
	Skipped     int
	Packages    []PackageResult
}

func (s Summary) Total() int { return s.Passed + s.Failed + s.Skipped }

// Parse reads a go test -json event stream into a Summary. Lines that are
// not JSON events (build errors print plain text) are skipped.
func Parse(r io.Reader) (Summary, error) {
	type key struct{ pkg, test string }
	status := make(map[key]string)
	elapsed := make(map[key]float64)
	output := make(map[key]*strings.Builder)
	pkgStatus := make(map[string]string)
	pkgElapsed := make(map[string]float64)
	var pkgOrder []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var ev event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			continue
		}
		if ev.Package == "" {
			continue
		}
		if _, seen := pkgStatus[ev.Package]; !seen {
			pkgStatus[ev.Package] = "pass"
			pkgOrder = append(pkgOrder, ev.Package)
		}

		if ev.Test == "" {
			switch ev.Action {
			case "pass", "fail", "skip":
				pkgStatus[ev.Package] = ev.Action
				pkgElapsed[ev.Package] = ev.Elapsed
			}
			continue
		}

		k := key{ev.Package, ev.Test}
		switch ev.Action {
		case "output":
			b, ok := output[k]
			if !ok {
				b = &strings.Builder{}
				output[k] = b
			}
			b.WriteString(ev.Output)
		case "pass", "fail", "skip":
			status[k] = ev.Action
			elapsed[k] = ev.Elapsed
		}
	}
	if err := scanner.Err(); err != nil {
		return Summary{}, err
	}

	var sum Summary
	sum.GeneratedAt = time.Now()
	for _, pkg := range pkgOrder {
		pr := PackageResult{
			Name:    pkg,
			Status:  pkgStatus[pkg],
			Elapsed: pkgElapsed[pkg],
		}
		for k, st := range status {
			if k.pkg != pkg {
				continue
			}
			tr := TestResult{
				Package: k.pkg,
				Name:    k.test,
				Status:  st,
				Elapsed: elapsed[k],
			}
			// Failure output is the useful part; passing output is noise.
			if st == "fail" {
				if b, ok := output[k]; ok {
					tr.Output = b.String()
				}
			}
			pr.Tests = append(pr.Tests, tr)
			switch st {
			case "pass":
				sum.Passed++
			case "fail":
				sum.Failed++
			case "skip":
				sum.Skipped++
			}
		}
		sort.Slice(pr.Tests, func(i, j int) bool { return pr.Tests[i].Name < pr.Tests[j].Name })
		sum.Packages = append(sum.Packages, pr)
	}
	return sum, nil
}
