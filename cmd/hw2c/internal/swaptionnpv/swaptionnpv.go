package swaptionnpv

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/meenmo/hw2c/cmd/hw2c/internal/pricing"
)

func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("swaption", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inputPath := fs.String("input", "", "JSON input path (optional; if set, ignores stdin)")
	format := fs.String("format", "json", "Output format: json or text")
	help := fs.Bool("h", false, "Show help")
	fs.BoolVar(help, "help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *help {
		usage(stderr)
		return 0
	}
	text := false
	switch strings.ToLower(strings.TrimSpace(*format)) {
	case "json":
	case "text":
		text = true
	default:
		fmt.Fprintf(stderr, "unknown format %q\n", *format)
		return 2
	}

	path := strings.TrimSpace(*inputPath)
	if path == "" {
		if f, ok := stdin.(*os.File); ok {
			if stat, err := f.Stat(); err == nil && (stat.Mode()&os.ModeCharDevice) != 0 {
				usage(stderr)
				return 2
			}
		}
	}

	inputBytes, err := pricing.ReadInput(stdin, path)
	if err != nil {
		return writeError(stdout, fmt.Sprintf("failed to read input: %v", err))
	}

	var input pricing.SwaptionRequest
	if err := json.Unmarshal(inputBytes, &input); err != nil {
		return writeError(stdout, fmt.Sprintf("failed to parse JSON input: %v", err))
	}

	output, err := pricing.PriceSwaption(input)
	if err != nil {
		return writeError(stdout, err.Error())
	}
	if text {
		writeText(stdout, output)
		return 0
	}
	pricing.WriteJSON(stdout, output)
	return 0
}

func writeText(w io.Writer, out *pricing.SwaptionResponse) {
	price, _ := out.TreePrice.Float64()
	fmt.Fprintf(w, "Tree price     %s\n", pricing.FormatMoney(price))
	if out.BlackPrice != nil {
		black, _ := out.BlackPrice.Float64()
		fmt.Fprintf(w, "Analytic price %s\n", pricing.FormatMoney(black))
	}
	fmt.Fprintf(w, "Strike         %s%%\n", out.StrikePct.StringFixed(4))
	fmt.Fprintf(w, "Forward        %s%%\n", out.ForwardPct.StringFixed(4))
	fmt.Fprintf(w, "Exercises      %s\n", strings.Join(out.ExerciseDates, ", "))
	fmt.Fprintf(w, "Grid           %d times, model v%d\n", out.GridSize, out.ModelVersion)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  hw2c swaption < input.json")
	fmt.Fprintln(w, "  hw2c swaption -input /path/to/input.json [-format text]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Read JSON input, value a european or bermudan swaption on the")
	fmt.Fprintln(w, "Hull-White lattice pair, output JSON (or a text report) to stdout.")
}

func writeError(stdout io.Writer, msg string) int {
	pricing.WriteJSON(stdout, pricing.SwaptionResponse{Error: msg})
	return 1
}
