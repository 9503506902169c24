// Package templates holds the HTML views for the converter UI. Views are
// written as .templ files; the *_templ.go files are generated from them with
// `templ generate`.
package templates

import (
	"strconv"

	"github.com/JonMunkholm/unitconv/internal/catalog"
)

// ConversionView is what the result fragment shows.
type ConversionView struct {
	Category  string
	From      string
	To        string
	Value     float64
	Result    float64
	Precision int
}

// ErrorView is what the error alert shows. Unit, when set, is the unit the
// error refers to and is highlighted.
type ErrorView struct {
	Message string
	Action  string
	Code    string
	Unit    string
}

// IndexParams holds the data for the full converter page.
type IndexParams struct {
	Categories []catalog.Category
	Selected   string
	Precision  int
}

// selected is the category preselected in the form: the requested one, or
// the first in catalog order.
func (p IndexParams) selected() string {
	if p.Selected == "" && len(p.Categories) > 0 {
		return p.Categories[0].Name
	}
	return p.Selected
}

// inputValue echoes the submitted value in its shortest form.
func inputValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
