package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/unitconv/internal/catalog"
)

func categoriesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "categories [NAME]",
		Short: "List categories, or the units of one category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadService(opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, c := range svc.Categories() {
					fmt.Fprintf(out, "%s (%s): %s\n", c.Name, c.Kind, strings.Join(c.Symbols(), ", "))
				}
				return nil
			}

			c, err := svc.Category(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "%s (%s)\n", c.Name, c.Kind)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, u := range c.Units {
				if c.Kind == catalog.KindTemperature {
					fmt.Fprintf(tw, "  %s\n", u.Symbol)
					continue
				}
				fmt.Fprintf(tw, "  %s\t%s\n", u.Symbol, strconv.FormatFloat(u.Factor, 'g', -1, 64))
			}
			return tw.Flush()
		},
	}
}
