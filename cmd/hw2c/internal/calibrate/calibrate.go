package calibrate

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/meenmo/hw2c/cmd/hw2c/internal/pricing"
	"github.com/meenmo/hw2c/config"
)

func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("calibrate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML calibration file (required)")
	verbose := fs.Bool("v", false, "Log optimizer progress to stderr")
	help := fs.Bool("h", false, "Show help")
	fs.BoolVar(help, "help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *help {
		usage(stderr)
		return 0
	}
	path := strings.TrimSpace(*configPath)
	if path == "" {
		usage(stderr)
		return 2
	}

	f, err := config.LoadCalibration(path)
	if err != nil {
		return writeError(stdout, fmt.Sprintf("failed to load %s: %v", path, err))
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	output, err := pricing.Calibrate(f, logger)
	if err != nil {
		return writeError(stdout, err.Error())
	}
	pricing.WriteJSON(stdout, output)
	if !output.Converged {
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  hw2c calibrate -config run.yaml [-v]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Fit the Hull-White mean reversion and volatility to a basket of")
	fmt.Fprintln(w, "european swaptions, output JSON to stdout. Exits 1 when the")
	fmt.Fprintln(w, "optimizer stops before converging; the best parameters are still printed.")
}

func writeError(stdout io.Writer, msg string) int {
	pricing.WriteJSON(stdout, pricing.CalibrationResponse{Error: msg})
	return 1
}
