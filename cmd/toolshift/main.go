package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/universal-mcp/toolshift"
)

var (
	flagAppsDir  string
	flagAppsFile string
	flagDB       string
	flagParallel bool
	flagVerbose  bool
)

var logger = zap.NewNop()

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "toolshift",
	Short:         "Static analysis and async conversion for tool wrapper modules",
	Long:          "Toolshift parses Python tool wrapper modules with tree-sitter, reports internal calls between registered operations, and rewrites registered operations from sync to async.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = buildLogger(flagVerbose)
		return err
	},
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAppsDir, "apps-dir", ".", "base directory holding <app>/app.py modules")
	rootCmd.PersistentFlags().StringVar(&flagAppsFile, "apps-file", "", "file listing app names, one per line (# comments)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "optional catalog database path")
	rootCmd.PersistentFlags().BoolVar(&flagParallel, "parallel", false, "process modules with a worker pool")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(callsCmd)
	rootCmd.AddCommand(asyncifyCmd)
	rootCmd.AddCommand(asyncifyHTTPCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(catalogCmd)
}

// buildLogger creates a console logger on stderr, so stdout stays
// reserved for results.
func buildLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	return config.Build()
}

// newEngine builds an engine from the persistent flags.
func newEngine() (*toolshift.Engine, error) {
	opts := []toolshift.Option{
		toolshift.WithLogger(logger),
		toolshift.WithParallel(flagParallel),
	}
	if flagDB != "" {
		opts = append(opts, toolshift.WithCatalog(flagDB))
	}
	engine, err := toolshift.New(flagAppsDir, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	return engine, nil
}

// resolveApps returns the batch's app names from positional args or,
// when none are given, from --apps-file.
func resolveApps(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if flagAppsFile == "" {
		return nil, fmt.Errorf("no apps given: pass app names as arguments or use --apps-file")
	}

	f, err := os.Open(flagAppsFile)
	if err != nil {
		return nil, fmt.Errorf("reading apps file: %w", err)
	}
	defer f.Close()

	var apps []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line != "" {
			apps = append(apps, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading apps file: %w", err)
	}
	if len(apps) == 0 {
		return nil, fmt.Errorf("apps file %s lists no apps", flagAppsFile)
	}
	return apps, nil
}
