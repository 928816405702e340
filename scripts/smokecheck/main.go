// Command smokecheck probes a running attendance API instance and verifies
// that its core endpoints respond with the expected status codes. It is meant
// to be run against a freshly deployed instance before routing traffic to it:
//
//	go run ./scripts/smokecheck -base http://localhost:8080
//
// A custom probe set can be supplied as JSON via -targets; otherwise a
// built-in set covering health, students, classes, attendance and dashboard
// endpoints is used. The tool exits non-zero when any critical probe fails.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

type probe struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Expect   int    `json:"expect"`
	Critical bool   `json:"critical"`
}

type probeConfig struct {
	Probes []probe `json:"probes"`
}

type result struct {
	Probe    probe
	Status   int
	Duration time.Duration
	Err      error
}

func defaultProbes() []probe {
	return []probe{
		{Method: http.MethodGet, Path: "/health", Expect: http.StatusOK, Critical: true},
		{Method: http.MethodGet, Path: "/ready", Expect: http.StatusOK, Critical: true},
		{Method: http.MethodGet, Path: "/api/v1/students", Expect: http.StatusOK, Critical: true},
		{Method: http.MethodGet, Path: "/api/v1/classes", Expect: http.StatusOK, Critical: true},
		{Method: http.MethodGet, Path: "/api/v1/attendance", Expect: http.StatusOK, Critical: true},
		{Method: http.MethodGet, Path: "/api/v1/attendance/reports/summary", Expect: http.StatusOK, Critical: false},
		{Method: http.MethodGet, Path: "/api/v1/dashboard/stats", Expect: http.StatusOK, Critical: false},
		{Method: http.MethodGet, Path: "/metrics", Expect: http.StatusOK, Critical: false},
	}
}

func main() {
	base := flag.String("base", "http://localhost:8080", "base URL of the attendance API")
	targetsPath := flag.String("targets", "", "optional JSON file describing probes")
	timeout := flag.Duration("timeout", 10*time.Second, "per-request timeout")
	flag.Parse()

	probes := defaultProbes()
	if *targetsPath != "" {
		loaded, err := loadProbes(*targetsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load probes: %v\n", err)
			os.Exit(2)
		}
		probes = loaded
	}

	client := &http.Client{Timeout: *timeout}

	var (
		results  []result
		failures int
	)
	for _, p := range probes {
		res := runProbe(client, *base, p)
		if probeFailed(res) && p.Critical {
			failures++
		}
		results = append(results, res)
	}

	printReport(results)

	fmt.Printf("Critical failures: %d\n", failures)
	if failures > 0 {
		os.Exit(1)
	}
}

func loadProbes(path string) ([]probe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg probeConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Probes) == 0 {
		return nil, fmt.Errorf("no probes defined in %s", path)
	}
	return cfg.Probes, nil
}

func runProbe(client *http.Client, base string, p probe) result {
	res := result{Probe: p}

	method := strings.ToUpper(strings.TrimSpace(p.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := p.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := strings.TrimRight(base, "/") + path

	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		res.Err = err
		return res
	}
	start := time.Now()
	resp, err := client.Do(req)
	res.Duration = time.Since(start)
	if err != nil {
		res.Err = err
		return res
	}
	defer resp.Body.Close()

	res.Status = resp.StatusCode
	return res
}

func probeFailed(res result) bool {
	if res.Err != nil {
		return true
	}
	expect := res.Probe.Expect
	if expect == 0 {
		expect = http.StatusOK
	}
	return res.Status != expect
}

func printReport(results []result) {
	fmt.Println("Smoke Check Report")
	fmt.Println("==================")
	for _, res := range results {
		status := "OK"
		if probeFailed(res) {
			status = "FAIL"
		}
		fmt.Printf("[%s] %s %s\n", status, res.Probe.Method, res.Probe.Path)
		if res.Err != nil {
			fmt.Printf("  Error: %v\n", res.Err)
			continue
		}
		expect := res.Probe.Expect
		if expect == 0 {
			expect = http.StatusOK
		}
		fmt.Printf("  Status: %d (want %d) in %s | Critical: %t\n", res.Status, expect, res.Duration, res.Probe.Critical)
	}
}
