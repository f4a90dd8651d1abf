package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var callsCmd = &cobra.Command{
	Use:   "calls [apps...]",
	Short: "Report internal calls between registered tool operations",
	Long:  "Parses each module, extracts the operations registered via list_tools, and prints the caller/callee pairs where one registered operation invokes another on the same instance.",
	RunE:  runCalls,
}

func runCalls(cmd *cobra.Command, args []string) error {
	apps, err := resolveApps(args)
	if err != nil {
		return err
	}
	engine, err := newEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	start := time.Now()
	report, err := engine.AnalyzeCalls(cmd.Context(), apps)
	if err != nil {
		return err
	}
	report.Format(os.Stdout)
	fmt.Fprintf(os.Stderr, "Analyzed %d app(s) in %s\n", len(apps), time.Since(start).Round(time.Millisecond))
	return nil
}

var asyncifyCmd = &cobra.Command{
	Use:   "asyncify [apps...]",
	Short: "Convert registered tool functions from sync to async",
	Long:  "Rewrites each registered operation's def to async def and overwrites the module source. Modules without registered operations are left unmodified.",
	RunE:  runAsyncify,
}

func runAsyncify(cmd *cobra.Command, args []string) error {
	apps, err := resolveApps(args)
	if err != nil {
		return err
	}
	engine, err := newEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	start := time.Now()
	summary, err := engine.AsyncifyDefs(cmd.Context(), apps)
	if summary != nil {
		fmt.Fprintf(os.Stderr, "Converted %d, skipped %d, failed %d in %s\n",
			summary.Converted, summary.Skipped, summary.Failed, time.Since(start).Round(time.Millisecond))
	}
	return err
}

var asyncifyHTTPCmd = &cobra.Command{
	Use:   "asyncify-http [apps...]",
	Short: "Convert HTTP helper calls inside tool functions to awaited async calls",
	Long:  "Rewrites self._get/_post/_put/_delete/_patch calls inside registered operation bodies to await self._a<verb> and overwrites the module source.",
	RunE:  runAsyncifyHTTP,
}

func runAsyncifyHTTP(cmd *cobra.Command, args []string) error {
	apps, err := resolveApps(args)
	if err != nil {
		return err
	}
	engine, err := newEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	start := time.Now()
	summary, err := engine.AsyncifyCalls(cmd.Context(), apps)
	if summary != nil {
		fmt.Fprintf(os.Stderr, "Converted %d, skipped %d, failed %d in %s\n",
			summary.Converted, summary.Skipped, summary.Failed, time.Since(start).Round(time.Millisecond))
	}
	return err
}

var flagScript string

var checkCmd = &cobra.Command{
	Use:   "check [apps...]",
	Short: "Run a Risor check script against each module",
	Long:  "Evaluates the script once per module with the module's source, registered operations, and internal call edges exposed as globals. A fail(msg) call in the script fails the batch.",
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&flagScript, "script", "", "path to the .risor check script (required)")
	checkCmd.MarkFlagRequired("script")
}

func runCheck(cmd *cobra.Command, args []string) error {
	apps, err := resolveApps(args)
	if err != nil {
		return err
	}
	engine, err := newEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	return engine.RunChecks(cmd.Context(), flagScript, apps)
}
