package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/universal-mcp/toolshift/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List recorded passes and call edges from the catalog",
	RunE:  runCatalog,
}

func runCatalog(cmd *cobra.Command, args []string) error {
	if flagDB == "" {
		return fmt.Errorf("catalog requires --db")
	}
	c, err := catalog.Open(flagDB)
	if err != nil {
		return err
	}
	defer c.Close()

	passes, err := c.Passes()
	if err != nil {
		return err
	}
	edges, err := c.Edges()
	if err != nil {
		return err
	}

	if len(passes) == 0 && len(edges) == 0 {
		fmt.Println("Catalog is empty.")
		return nil
	}

	if len(passes) > 0 {
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "APP\tPASS\tHASH\tPROCESSED")
		for _, p := range passes {
			fmt.Fprintf(tw, "%s\t%s\t%.12s\t%s\n",
				p.App, p.Pass, p.Hash, p.ProcessedAt.Format("2006-01-02 15:04:05"))
		}
		tw.Flush()
	}

	if len(edges) > 0 {
		fmt.Println()
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "APP\tCALLER\tCALLEE")
		for _, e := range edges {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", e.App, e.Caller, e.Callee)
		}
		tw.Flush()
	}
	return nil
}
