package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/atelier/storefront/app/routes"
	"github.com/atelier/storefront/app/services"
	"github.com/atelier/storefront/internal/kernel"
	"github.com/atelier/storefront/internal/server"
	"github.com/atelier/storefront/pkg/router"
)

// atelier serve
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run"},
	Short:   "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start()
	},
}

// atelier route:list
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List all registered routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Route registration never calls the services, so empty ones do.
		r := kernel.New(kernel.Options{
			StorageRoot: "storage",
			API:         routes.Deps{Seed: &services.SeedService{}},
		})
		return printRoutes(os.Stdout, r.Routes())
	},
}

func printRoutes(out io.Writer, infos []router.RouteInfo) error {
	if len(infos) == 0 {
		fmt.Fprintln(out, "No routes registered.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "METHOD\tPATH\tNAME")
	fmt.Fprintln(w, "------\t----\t----")
	for _, ri := range infos {
		fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
	}
	return w.Flush()
}
