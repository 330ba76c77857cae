//go:build property
// +build property

package routes

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestResolveProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	paths := gen.RegexMatch(`^(/{1,2}[a-z.]{0,4}){0,5}/?(\?[a-z=/]{0,6})?$`)
	slugs := gen.SliceOfN(3, gen.RegexMatch(`^[a-z]{1,4}$`))

	tableFrom := func(s []string) Table {
		table, _ := Build("/abs", s)
		return table
	}

	properties.Property("no doubled or trailing separators", prop.ForAll(
		func(p string, s []string) bool {
			got := Resolve(p, tableFrom(s), home)
			return !strings.Contains(got, "//") && (got == "/" || !strings.HasSuffix(got, "/"))
		},
		paths, slugs,
	))

	properties.Property("pure: same inputs give the same output", prop.ForAll(
		func(p string, s []string) bool {
			table := tableFrom(s)
			return Resolve(p, table, home) == Resolve(p, table, home)
		},
		paths, slugs,
	))

	properties.Property("matched paths land under the route directory", prop.ForAll(
		func(p string, s []string) bool {
			table := tableFrom(s)
			clean := p
			if i := strings.IndexByte(clean, '?'); i >= 0 {
				clean = clean[:i]
			}
			got := Resolve(p, table, home)
			if clean == "" || clean == "/" {
				return got == home
			}
			for _, r := range table {
				if strings.HasPrefix(clean, r.Prefix) {
					return got == r.Dir || strings.HasPrefix(got, r.Dir+"/")
				}
			}
			return got == home || strings.HasPrefix(got, home+"/")
		},
		paths, slugs,
	))

	properties.Property("empty table resolves under home", prop.ForAll(
		func(p string) bool {
			got := Resolve(p, nil, home)
			return got == home || strings.HasPrefix(got, home+"/")
		},
		paths,
	))

	properties.TestingRun(t)
}
