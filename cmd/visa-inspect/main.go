// Command visa-inspect is a one-shot, non-interactive diagnostic tool: it
// opens a ResourceManager, lists matching resources, and optionally opens
// one and runs a single query against it. It is not a REPL or a shell —
// those are external collaborators this module does not provide.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"govisa/backend"
	"govisa/visa"

	_ "govisa/backend/ivi"
	_ "govisa/backends/serialport"
	_ "govisa/backends/usbtmc"
)

func main() {
	var (
		libraryPath = flag.String("library", "", "path hint for the VISA shared library, empty to auto-discover")
		extraPaths  = flag.String("extra-paths", "", "colon-separated extra library directories, stored in backend.Config.ExtraPaths (the ivi backend does not search them)")
		pattern     = flag.String("pattern", "?*::INSTR", "resource discovery pattern")
		open        = flag.String("open", "", "resource name to open and query (optional)")
		query       = flag.String("query", "*IDN?", "command to send to -open")
		timeoutMS   = flag.Int64("timeout-ms", 2000, "I/O timeout for the opened resource")
		logLevel    = flag.String("log-level", "info", "debug|info|warn|error")
	)
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(*logLevel)})))

	cfg := backend.Config{LibraryPath: *libraryPath}
	if *extraPaths != "" {
		cfg.ExtraPaths = splitPaths(*extraPaths)
	}

	rm, err := visa.OpenDefaultRM(cfg)
	if err != nil {
		slog.Error("open resource manager", "error", err)
		os.Exit(1)
	}
	defer rm.Close()

	names, err := rm.ListResources(*pattern)
	if err != nil {
		slog.Error("list resources", "pattern", *pattern, "error", err)
		os.Exit(1)
	}
	for _, n := range names {
		fmt.Println(n)
	}

	if *open == "" {
		return
	}

	err = visa.WithResource(rm, *open, func(res *visa.Resource) error {
		res.SetTimeoutMS(*timeoutMS)
		resp, err := res.Query(*query)
		if err != nil {
			return err
		}
		fmt.Printf("%s -> %s\n", *open, resp)
		return nil
	})
	if err != nil {
		slog.Error("query resource", "resource", *open, "error", err)
		os.Exit(1)
	}
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func splitPaths(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ':' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
