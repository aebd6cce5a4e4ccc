// Command queuefile provides a CLI tool for inspecting queue files.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/995933447/confloader"
	"github.com/fsnotify/fsnotify"

	"github.com/radarbase/queuefile"
)

const version = "1.0.0"

// cliConfig holds defaults an operator can tune without a rebuild.
// While `watch` runs the config file is re-read every
// cfgRefreshInterval, but the fallback ticker is created once from the
// value loaded at startup; a reloaded PollFallbackInterval does not
// change the interval of a running `watch`.
type cliConfig struct {
	// PollFallbackInterval is how often `watch` re-checks stats even
	// when no fsnotify event arrives (covers filesystems where
	// writes don't reliably surface as events).
	PollFallbackInterval time.Duration `json:"poll_fallback_interval"`
}

const defaultPollFallbackInterval = 5 * time.Second
const cfgRefreshInterval = 10 * time.Second

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "stats":
		handleStats()
	case "inspect":
		handleInspect()
	case "peek":
		handlePeek()
	case "watch":
		handleWatch()
	case "version":
		fmt.Printf("queuefile version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("queuefile CLI Tool - Queue File Inspection")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  queuefile <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  stats <path>               Show queue file statistics")
	fmt.Println("  inspect <path>             Detailed queue file inspection (JSON)")
	fmt.Println("  peek <path> [count]        Peek at the next N elements without consuming")
	fmt.Println("  watch <path> [--config f]  Print stats whenever the file changes")
	fmt.Println("  version                    Show version information")
	fmt.Println("  help                       Show this help message")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  queuefile stats /path/to/events.queue")
	fmt.Println("  queuefile inspect /path/to/events.queue")
	fmt.Println("  queuefile peek /path/to/events.queue 5")
	fmt.Println("  queuefile watch /path/to/events.queue")
}

func openReadOnlyArg(cmd string) *queuefile.QueueFile {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "Error: queue file path required\nUsage: queuefile %s <path>\n", cmd)
		os.Exit(1)
	}
	q, err := queuefile.Open(os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening queue file: %v\n", err)
		os.Exit(1)
	}
	return q
}

func handleStats() {
	q := openReadOnlyArg("stats")
	defer q.Close()

	stats := q.Stats()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Queue File Statistics")
	fmt.Fprintln(w, "======================")
	fmt.Fprintf(w, "Path:\t%s\n", os.Args[2])
	fmt.Fprintf(w, "Size:\t%d elements\n", stats.Size)
	fmt.Fprintf(w, "FileSize:\t%d bytes\n", stats.FileSize)
	fmt.Fprintf(w, "MaxSize:\t%d bytes\n", stats.MaxSize)
	fmt.Fprintf(w, "UsedBytes:\t%d bytes\n", stats.UsedBytes)
	if stats.FileSize > 0 {
		fmt.Fprintf(w, "Utilization:\t%.1f%%\n", float64(stats.UsedBytes)/float64(stats.FileSize)*100)
	}
	w.Flush()
}

func handleInspect() {
	q := openReadOnlyArg("inspect")
	defer q.Close()

	stats := q.Stats()

	inspection := map[string]interface{}{
		"path":       os.Args[2],
		"size":       stats.Size,
		"file_size":  stats.FileSize,
		"max_size":   stats.MaxSize,
		"used_bytes": stats.UsedBytes,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(inspection); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}

func handlePeek() {
	q := openReadOnlyArg("peek")
	defer q.Close()

	count := 10
	if len(os.Args) > 3 {
		n, err := strconv.Atoi(os.Args[3])
		if err != nil || n <= 0 {
			fmt.Fprintln(os.Stderr, "Error: count must be a positive integer")
			os.Exit(1)
		}
		count = n
	}

	it, err := q.NewIterator()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating iterator: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Peeking at up to %d element(s) of %d total:\n\n", count, q.Size())

	shown := 0
	for shown < count && it.Next() {
		data, err := io.ReadAll(it.Stream())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading element: %v\n", err)
			os.Exit(1)
		}
		shown++
		fmt.Printf("Element %d (%d bytes):\n", shown, len(data))
		fmt.Printf("  %q\n\n", previewBytes(data))
	}
	if err := it.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error during iteration: %v\n", err)
		os.Exit(1)
	}
}

func previewBytes(data []byte) string {
	const maxPreview = 200
	if len(data) <= maxPreview {
		return string(data)
	}
	return string(data[:maxPreview]) + "..."
}

func loadCLIConfig(path string) (*cliConfig, *confloader.Loader) {
	cfg := &cliConfig{PollFallbackInterval: defaultPollFallbackInterval}
	if path == "" {
		return cfg, nil
	}
	loader := confloader.NewLoader(path, cfgRefreshInterval, cfg)
	if err := loader.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config %s: %v\n", path, err)
		return &cliConfig{PollFallbackInterval: defaultPollFallbackInterval}, nil
	}
	if cfg.PollFallbackInterval <= 0 {
		cfg.PollFallbackInterval = defaultPollFallbackInterval
	}
	return cfg, loader
}

func handleWatch() {
	q := openReadOnlyArg("watch")
	path := os.Args[2]
	q.Close()

	var cfgPath string
	for i := 3; i < len(os.Args)-1; i++ {
		if os.Args[i] == "--config" {
			cfgPath = os.Args[i+1]
		}
	}
	cfg, cfgLoader := loadCLIConfig(cfgPath)
	if cfgLoader != nil {
		go watchCLIConfig(cfgLoader)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating file watcher: %v\n", err)
		os.Exit(1)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error watching %s: %v\n", path, err)
		os.Exit(1)
	}

	fmt.Printf("Watching %s for changes (Ctrl+C to stop)...\n\n", path)
	printStatsLine(path)

	fallback := time.NewTicker(cfg.PollFallbackInterval)
	defer fallback.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) {
				printStatsLine(path)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			fmt.Fprintf(os.Stderr, "Watch error: %v\n", err)
		case <-fallback.C:
			printStatsLine(path)
		}
	}
}

func watchCLIConfig(loader *confloader.Loader) {
	errCh := make(chan error)
	go func() {
		for err := range errCh {
			fmt.Fprintf(os.Stderr, "Warning: failed to refresh config: %v\n", err)
		}
	}()
	loader.WatchToLoad(errCh)
}

func printStatsLine(path string) {
	q, err := queuefile.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[%s] error reopening %s: %v\n", time.Now().Format(time.RFC3339), path, err)
		return
	}
	stats := q.Stats()
	q.Close()
	fmt.Printf("[%s] size=%d fileSize=%d usedBytes=%d\n",
		time.Now().Format(time.RFC3339), stats.Size, stats.FileSize, stats.UsedBytes)
}
