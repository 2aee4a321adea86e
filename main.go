package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cilix/Holly/api"
	"github.com/cilix/Holly/compiler"
	"github.com/cilix/Holly/config"
	"github.com/cilix/Holly/debugger"
	"github.com/cilix/Holly/loader"
	"github.com/cilix/Holly/vm"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"     // Version number (set by git tag at build time)
	Commit  = "unknown" // Git commit hash
	Date    = "unknown" // Build date
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
		debugMode   = flag.Bool("debug", false, "Start in TUI step debugger")
		apiServer   = flag.Bool("api-server", false, "Start HTTP/WebSocket API server mode")
		apiPort     = flag.Int("port", 4099, "API server port (used with -api-server)")
		maxSteps    = flag.Uint64("max-steps", 0, "Maximum instructions before halt (0: use config default)")
		configPath  = flag.String("config", "", "Path to a config.toml (default: platform config dir)")
		verboseMode = flag.Bool("verbose", false, "Verbose output")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("Holly %s\n", Version)
		if Commit != "unknown" {
			fmt.Printf("Commit: %s\n", Commit)
		}
		if Date != "unknown" {
			fmt.Printf("Built: %s\n", Date)
		}
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *maxSteps > 0 {
		cfg.Execution.MaxSteps = *maxSteps
	}

	if *apiServer {
		runAPIServer(cfg, *apiPort)
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: holly [options] <source-file>")
		flag.Usage()
		os.Exit(1)
	}

	src, filename, err := loader.LoadSource(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	global, pool, cerr := compiler.Compile(src, filename)
	if cerr != nil {
		fmt.Fprintf(os.Stderr, "Compile error: %v\n", cerr)
		os.Exit(1)
	}

	machine := vm.New(global, pool)
	machine.MaxSteps = cfg.Execution.MaxSteps

	if *debugMode {
		if err := debugger.Run(machine, filename, src); err != nil {
			fmt.Fprintf(os.Stderr, "Debugger error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if rerr := machine.Run(); rerr != nil {
		fmt.Fprintf(os.Stderr, "Runtime error: %v\n", rerr)
		if *verboseMode {
			for _, line := range machine.InstructionLog {
				fmt.Fprintln(os.Stderr, line)
			}
		}
		os.Exit(1)
	}

	os.Exit(0)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func runAPIServer(cfg *config.Config, port int) {
	server := api.NewServer(cfg, port, Version, Commit, Date)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var shutdownOnce sync.Once
	performShutdown := func() {
		shutdownOnce.Do(func() {
			fmt.Println("\nShutting down API server...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
				os.Exit(1)
			}
		})
	}

	go func() {
		<-sigChan
		performShutdown()
	}()

	fmt.Printf("Holly API server listening on :%d\n", port)
	if err := server.ListenAndServe(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Printf(`Holly %s

Usage: holly [options] <source-file>
       holly -api-server [-port N]

Options:
  -help              Show this help message
  -version           Show version information
  -debug             Start in TUI step debugger
  -api-server        Start HTTP/WebSocket API server mode (no source file required)
  -port N            API server port (default: 4099, used with -api-server)
  -max-steps N       Maximum instructions before halt (default: from config)
  -config PATH       Path to a config.toml (default: platform config dir)
  -verbose           Print the instruction log on a runtime error

Examples:
  holly program.holly
  holly -debug program.holly
  holly -api-server -port 3000
`, Version)
}
