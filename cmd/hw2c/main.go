package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/meenmo/hw2c/cmd/hw2c/internal/calibrate"
	"github.com/meenmo/hw2c/cmd/hw2c/internal/server"
	"github.com/meenmo/hw2c/cmd/hw2c/internal/swapnpv"
	"github.com/meenmo/hw2c/cmd/hw2c/internal/swaptionnpv"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "swap":
		return swapnpv.Run(args[1:], stdin, stdout, stderr)
	case "swaption":
		return swaptionnpv.Run(args[1:], stdin, stdout, stderr)
	case "calibrate":
		return calibrate.Run(args[1:], stdin, stdout, stderr)
	case "serve":
		return server.Run(args[1:], stdin, stdout, stderr)
	case "-h", "--help", "help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: hw2c <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  swap       Vanilla swap NPV on the dual-curve Hull-White lattice")
	fmt.Fprintln(w, "  swaption   European or bermudan swaption NPV")
	fmt.Fprintln(w, "  calibrate  Fit mean reversion and volatility to swaption quotes")
	fmt.Fprintln(w, "  serve      HTTP API for the commands above")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run `hw2c <command> -h` for command-specific help.")
}
