// Package cli implements the unitconv command line.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/unitconv/internal/catalog"
	"github.com/JonMunkholm/unitconv/internal/core"
	"github.com/JonMunkholm/unitconv/internal/logging"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := run(newRootCmd(), os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

// options are the persistent flags shared by every subcommand.
type options struct {
	catalogPath string
	logLevel    string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "unitconv",
		Short:         "Convert values between units of measure",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logging.SetupWriter(cmd.ErrOrStderr(), opts.logLevel, "text")
		},
	}

	cmd.PersistentFlags().StringVar(&opts.catalogPath, "catalog", os.Getenv("CATALOG_PATH"),
		"JSON or YAML category file (default: built-in table, or $CATALOG_PATH)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "debug, info, warn or error")

	cmd.AddCommand(convertCmd(opts))
	cmd.AddCommand(categoriesCmd(opts))
	return cmd
}

// run executes cmd with args and prints any error to its error stream.
func run(cmd *cobra.Command, args []string) error {
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", describe(err))
	}
	return err
}

// describe renders err for a terminal user. Conversion and catalog errors
// get the mapped message with its code; anything else is printed as is.
func describe(err error) string {
	var le *catalog.LoadError
	if errors.As(err, &le) {
		return le.Error()
	}
	if core.IsUserFacing(err) {
		msg := core.MapError(err)
		if unit := core.OffendingUnit(err); unit != "" {
			return fmt.Sprintf("%s: %q (%s). %s", msg.Message, unit, msg.Code, msg.Action)
		}
		return core.FormatUserError(err)
	}
	return err.Error()
}

// embeddedCatalog is parsed on first use and shared by every command run in
// this process.
var embeddedCatalog = catalog.NewOnce(catalog.Embedded())

// loadService loads the catalog named by the flags and wraps it in a
// Service without history.
func loadService(opts *options) (*core.Service, error) {
	load := embeddedCatalog.Load
	if opts.catalogPath != "" {
		load = func() (*catalog.Catalog, error) {
			return catalog.Load(catalog.FileSource(opts.catalogPath))
		}
	}

	cat, err := load()
	if err != nil {
		return nil, err
	}
	return core.NewService(cat, nil, core.Options{})
}
