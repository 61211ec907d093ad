package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const swapInput = `{
  "market": {"reference_date": "2022-11-15",
             "discount": {"flat_rate": 5}, "forward": {"flat_rate": 3}},
  "model": {"time_steps": 30},
  "swap": {"direction": "REC", "notional": 10000, "fixed_rate": 2.5, "tenor": "3Y"}
}`

const swaptionInput = `{
  "market": {"reference_date": "2022-11-15",
             "discount": {"flat_rate": 5}, "forward": {"flat_rate": 3}},
  "model": {"time_steps": 30},
  "swap": {"direction": "PAY", "notional": 10000, "tenor": "5Y"},
  "expiry": "1Y",
  "atm": true
}`

const calibrationInput = `
market:
  reference_date: "2022-11-15"
  discount: {flat_rate: 5}
  forward: {flat_rate: 3}
model: {a: 0.1, sigma: 0.005, time_steps: 30}
helpers:
  - {expiry: 2Y, tenor: 5Y, volatility: 0.009, volatility_type: NORMAL, error_type: IMPLIED_VOL}
`

func TestRunUsage(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	if code := run(nil, strings.NewReader(""), &stdout, &stderr); code != 2 {
		t.Fatalf("no args exit = %d, want 2", code)
	}
	if code := run([]string{"help"}, strings.NewReader(""), &stdout, &stderr); code != 0 {
		t.Fatalf("help exit = %d", code)
	}
	if !strings.Contains(stdout.String(), "calibrate") {
		t.Fatalf("usage missing commands: %s", stdout.String())
	}
	if code := run([]string{"bond"}, strings.NewReader(""), &stdout, &stderr); code != 2 {
		t.Fatalf("unknown command exit = %d, want 2", code)
	}
}

func TestRunSwap(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	if code := run([]string{"swap"}, strings.NewReader(swapInput), &stdout, &stderr); code != 0 {
		t.Fatalf("exit = %d stdout %s stderr %s", code, stdout.String(), stderr.String())
	}
	var out map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if _, ok := out["tree_npv"]; !ok {
		t.Fatalf("missing tree_npv: %v", out)
	}
	if _, ok := out["error"]; ok {
		t.Fatalf("unexpected error: %v", out["error"])
	}
}

func TestRunSwapBadJSON(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	if code := run([]string{"swap"}, strings.NewReader("{"), &stdout, &stderr); code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.Contains(stdout.String(), "failed to parse JSON input") {
		t.Fatalf("stdout = %s", stdout.String())
	}
}

func TestRunSwaptionText(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "swaption.json")
	if err := os.WriteFile(path, []byte(swaptionInput), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	var stdout, stderr bytes.Buffer
	if code := run([]string{"swaption", "-input", path, "-format", "text"}, strings.NewReader(""), &stdout, &stderr); code != 0 {
		t.Fatalf("exit = %d stdout %s stderr %s", code, stdout.String(), stderr.String())
	}
	if !strings.Contains(stdout.String(), "Tree price") {
		t.Fatalf("text report = %s", stdout.String())
	}
}

func TestRunCalibrate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte(calibrationInput), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	var stdout, stderr bytes.Buffer
	if code := run([]string{"calibrate", "-config", path}, strings.NewReader(""), &stdout, &stderr); code != 0 {
		t.Fatalf("exit = %d stdout %s stderr %s", code, stdout.String(), stderr.String())
	}
	var out struct {
		A         float64 `json:"a"`
		Sigma     float64 `json:"sigma"`
		Converged bool    `json:"converged"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if !out.Converged || out.A != 0.1 || out.Sigma <= 0 {
		t.Fatalf("calibration output = %+v", out)
	}

	stdout.Reset()
	if code := run([]string{"calibrate"}, strings.NewReader(""), &stdout, &stderr); code != 2 {
		t.Fatalf("missing -config exit = %d, want 2", code)
	}
}
