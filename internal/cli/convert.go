package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/unitconv/internal/core"
)

func convertCmd(opts *options) *cobra.Command {
	var category string
	var precision int
	var asJSON bool

	c := &cobra.Command{
		Use:   "convert VALUE FROM TO",
		Short: "Convert a value from one unit to another",
		Long: "Convert a value from one unit to another within a category.\n" +
			"Put -- before negative values: unitconv convert -c Temperature -- -40 C F",
		Example: "  unitconv convert 10 ft m --category Length\n" +
			"  unitconv convert 98.6 F C -c Temperature --precision 1",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseFloat(strings.TrimSpace(args[0]), 64)
			if err != nil {
				return fmt.Errorf("invalid request: value %q is not a number", args[0])
			}

			svc, err := loadService(opts)
			if err != nil {
				return err
			}

			res, err := svc.Convert(cmd.Context(), core.Request{
				Category: category,
				From:     args[1],
				To:       args[2],
				Value:    value,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			fmt.Fprintln(out, res.Format(precision))
			return nil
		},
	}

	c.Flags().StringVarP(&category, "category", "c", "", "Category name, e.g. Length (required)")
	c.Flags().IntVarP(&precision, "precision", "p", core.DefaultPrecision, "Decimal places in the result")
	c.Flags().BoolVar(&asJSON, "json", false, "Print the full result as JSON")

	_ = c.MarkFlagRequired("category")
	return c
}
