/*
Package main implements the lexidx indexing engine's server and CLI
application.

Note: this is a BETA release. APIs and functionality may rapidly change.

lexidx provides exact, prefix, suffix, substring, similarity, length,
ID-range, boolean, and complex queries over a dictionary of words backed
by five cooperating indices: an ordered prefix set, an ordered suffix
set, a 2-gram inverted index, a length-bucket index, and a BK-tree over
Damerau-Levenshtein distance. It can operate as a MessagePack IPC server
for integration with other processes, or as a CLI application for
interactive testing and debugging.

Dictionary state is persisted as an append-only text log; a binary
snapshot of the four cheap-to-serialize indices sits alongside it as a
".cache" file so a restart can skip rebuilding them when the log hasn't
changed since the snapshot was written.

# Usage

Start the IPC server with default settings:

	lexidx

Use a custom text log path and enable debug mode:

	lexidx -log /path/to/words.txt -d

Run in CLI mode for interactive testing:

	lexidx -c -limit 10

Generate N synthetic words into a fresh text log instead of serving:

	lexidx -gen 100000 -log /path/to/words.txt

# Configuration

Runtime configuration is managed through a TOML file covering engine,
text-log, CLI, and server sections:

	[engine]
	max_distance_cap = 10
	default_sim_max_d = 2

	[textlog]
	path = "words.txt"
	fsync_on_append = true

The config file is created with defaults on first run if missing.

# IPC Protocol

The server communicates via MessagePack over stdin/stdout; see pkg/server
for the request/response envelope and kind vocabulary.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/bastiangx/lexidx/internal/cli"
	"github.com/bastiangx/lexidx/internal/generator"
	"github.com/bastiangx/lexidx/internal/stats"
	"github.com/bastiangx/lexidx/internal/textlog"
	"github.com/bastiangx/lexidx/internal/utils"
	"github.com/bastiangx/lexidx/pkg/config"
	"github.com/bastiangx/lexidx/pkg/engine"
	"github.com/bastiangx/lexidx/pkg/server"
	"github.com/bastiangx/lexidx/pkg/snapshot"
)

const (
	Version = "0.1.0-beta"
	AppName = "lexidx"
	gh      = "https://github.com/bastiangx/lexidx"
)

// sigHandler installs a simple OS signal handler that runs cleanup before
// exiting normally.
func sigHandler(cleanup func()) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nShutting down...\n")
		cleanup()
		os.Exit(0)
	}()
}

// main calls other packages to initialize the server or CLI inputs.
// main() does not implement index/query logic itself and only manages
// the flow between config, engine, persistence, and the chosen frontend.
func main() {
	showVersion := flag.Bool("version", false, "Show current version")
	configPath := flag.String("config", "", "Path to config.toml (default: platform config dir)")
	logPath := flag.String("log", "", "Path to the text log file (overrides config)")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	limit := flag.Int("limit", 0, "Number of results to print per CLI query (default from config)")
	genCount := flag.Int("gen", 0, "Generate N synthetic words into the text log instead of serving")
	genSeed := flag.Int64("seed", 1, "Seed for the synthetic word generator")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Fatalf("Failed to initialize path resolver: %v", err)
	}

	resolvedConfigPath := *configPath
	if resolvedConfigPath == "" {
		resolvedConfigPath, err = pathResolver.GetConfigPath("config.toml")
		if err != nil {
			log.Fatalf("Failed to resolve config path: %v", err)
		}
	}
	appConfig, err := config.InitConfig(resolvedConfigPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: %s", resolvedConfigPath)

	textLogPath := *logPath
	if textLogPath == "" {
		textLogPath = pathResolver.ResolveTextLogPath(appConfig.TextLog.Path)
	}
	log.Debugf("Using text log at: %s", textLogPath)

	eng := engine.New(engine.Options{
		MaxDistanceCap:   appConfig.Engine.MaxDistanceCap,
		InsertDepthGuard: appConfig.Engine.InsertDepthGuard,
	})

	if *genCount > 0 {
		runGenerate(eng, textLogPath, appConfig, *genCount, *genSeed)
		return
	}

	if err := loadEngine(eng, textLogPath); err != nil {
		log.Fatalf("Failed to load dictionary: %v", err)
	}

	appender, err := textlog.Open(textLogPath, appConfig.TextLog.FsyncOnAppend)
	if err != nil {
		log.Fatalf("Failed to open text log for appending: %v", err)
	}

	cleanup := func() {
		writeSnapshot(eng, textLogPath)
		appender.Close()
	}
	sigHandler(cleanup)
	defer cleanup()

	if appConfig.Engine.OptimizeOnStartup {
		eng.Optimize()
	}

	if *cliMode {
		log.SetReportTimestamp(false)
		cliLimit := *limit
		if cliLimit <= 0 {
			cliLimit = appConfig.CLI.DefaultLimit
		}
		handler := cli.NewInputHandler(eng, appender, appConfig.CLI.Prompt, cliLimit)
		if err := handler.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	log.Debug("spawning msgpack IPC server")
	showStartupInfo(textLogPath, eng)
	srv := server.NewStdioServer(eng, appConfig.Server.MaxLimit, time.Duration(appConfig.Server.TimeoutSec)*time.Second)
	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// loadEngine populates eng from textLogPath, taking the snapshot
// fast-path when the sibling .cache file is newer than the text log.
func loadEngine(eng *engine.Engine, textLogPath string) error {
	snapshotPath := textLogPath + ".cache"

	entries, err := textlog.Load(textLogPath)
	if err != nil {
		return fmt.Errorf("reading text log: %w", err)
	}
	for _, e := range entries {
		canon := eng.In.Intern(e.Word)
		if _, err := eng.Dict.InsertNew(canon, e.ID); err != nil {
			log.Warnf("skipping malformed text log entry id=%d word=%q: %v", e.ID, e.Word, err)
			continue
		}
		if e.Deleted {
			eng.Dict.MarkDeleted(e.ID)
		}
	}

	if snapshot.IsValid(textLogPath, snapshotPath) {
		if _, snap, err := snapshot.ReadFile(snapshotPath); err == nil {
			eng.LoadSnapshot(snap)
			if dropped := eng.Idx.BuildSim(eng.Dict, eng.In); len(dropped) > 0 {
				log.Warnf("bk-tree insert depth guard hit for %d word(s) while rebuilding the similarity index", len(dropped))
			}
			log.Debug("loaded snapshot, skipped prefix/suffix/gram/length rebuild")
			return nil
		}
		log.Warn("snapshot present but unreadable, falling back to full rebuild")
	}

	return eng.Rebuild(context.Background())
}

func writeSnapshot(eng *engine.Engine, textLogPath string) {
	snapshotPath := textLogPath + ".cache"
	if err := snapshot.WriteFile(snapshotPath, snapshot.MagicLTC2, eng.Snapshot()); err != nil {
		log.Warnf("failed to write snapshot: %v", err)
		return
	}
	log.Debugf("wrote snapshot to %s", snapshotPath)
}

func runGenerate(eng *engine.Engine, textLogPath string, appConfig *config.Config, count int, seed int64) {
	gen := generator.New(uint64(seed), 3, 12)
	words := gen.Words(count)

	if err := os.MkdirAll(filepath.Dir(textLogPath), 0755); err != nil {
		log.Fatalf("failed to create text log directory: %v", err)
	}
	appender, err := textlog.Open(textLogPath, appConfig.TextLog.FsyncOnAppend)
	if err != nil {
		log.Fatalf("failed to open text log: %v", err)
	}
	defer appender.Close()

	reporter := stats.NewReporter(10000)
	for _, w := range words {
		res := eng.Add(w)
		if res.Created {
			if err := appender.Append(textlog.Entry{ID: res.ID, Word: w}); err != nil {
				log.Fatalf("failed to append generated word: %v", err)
			}
		}
		if d, ok := reporter.Tick(); ok {
			log.Debugf("generate progress: %s", d)
		}
	}
	log.Infof("generated %d words into %s", len(words), textLogPath)
}

func printVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ lexidx ] In-memory dictionary indexing and query engine")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}

func showStartupInfo(textLogPath string, eng *engine.Engine) {
	pid := os.Getpid()
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	println("===========")
	println(" " + AppName + " ")
	println("===========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", pid)
	log.Info("init: OK")
	log.Infof("text log: ( %s )", textLogPath)
	log.Infof("dictionary size: %d (%d active)", eng.Dict.Len(), eng.Dict.ActiveCount())
	log.Info("status: ready")
	println("===========")
	println("Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}
