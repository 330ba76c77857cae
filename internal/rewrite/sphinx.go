package rewrite

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SphinxConfig adapts a freshly generated conf.py for project: the package
// directories are put on sys.path, napoleon is enabled next to viewcode,
// the Read the Docs theme replaces alabaster, and theme options,
// autoclass_content and the mocked imports are appended.
func SphinxConfig(content []byte, project string, mocks []string) []byte {
	lines := strings.SplitAfter(string(content), "\n")

	var b strings.Builder
	pathSet, napoleon := false, false
	for _, l := range lines {
		trimmed := strings.TrimSpace(l)
		switch {
		case trimmed == "# import os":
			l = "import os\n"
		case trimmed == "# import sys":
			l = "import sys\n"
		case strings.HasPrefix(trimmed, "# sys.path.insert(0, os.path.abspath("):
			l = sysPathBlock(project)
			pathSet = true
		case strings.Contains(l, "'sphinx.ext.viewcode',") || strings.Contains(l, `"sphinx.ext.viewcode",`):
			indent := l[:len(l)-len(strings.TrimLeft(l, " \t"))]
			l = l + indent + "'sphinx.ext.napoleon',\n"
			napoleon = true
		case isAlabaster(trimmed):
			l = "html_theme = 'sphinx_rtd_theme'\n"
		}
		b.WriteString(l)
	}

	out := b.String()
	if !pathSet {
		out = "import os\nimport sys\n" + sysPathBlock(project) + "\n" + out
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}

	out += "\nhtml_theme_options = {\n"
	out += "    'titles_only': True,\n"
	out += "    'navigation_depth': -1,\n"
	out += "    'collapse_navigation': False\n"
	out += "}\n"
	out += "\nautoclass_content = 'both'\n"
	if !napoleon && !strings.Contains(out, "sphinx.ext.napoleon") {
		out += "\nextensions.append('sphinx.ext.napoleon')\n"
	}
	if len(mocks) > 0 {
		quoted := make([]string, len(mocks))
		for i, m := range mocks {
			quoted[i] = fmt.Sprintf("%q", m)
		}
		out += fmt.Sprintf("\nautodoc_mock_imports = [%s]\n", strings.Join(quoted, ", "))
	}
	return []byte(out)
}

func sysPathBlock(project string) string {
	return "sys.path.insert(0, os.path.abspath('.'))\n" +
		"sys.path.insert(0, os.path.abspath('..'))\n" +
		fmt.Sprintf("sys.path.insert(0, os.path.abspath('../%s'))\n", project)
}

func isAlabaster(line string) bool {
	return line == "html_theme = 'alabaster'" || line == `html_theme = "alabaster"`
}

// SphinxConfigFile rewrites the conf.py at path in place.
func SphinxConfigFile(path, project string, mocks []string) error {
	_, err := rewriteFile(path, func(b []byte) ([]byte, bool) {
		return SphinxConfig(b, project, mocks), true
	})
	return err
}

// AddProjectToRSTIndex lists project in the toctree of a Sphinx index.rst
// and raises its depth to 6. The "Indices and tables" section heading makes
// room for the entry; without one, the entry goes right after the toctree
// options.
func AddProjectToRSTIndex(content []byte, project string) ([]byte, bool) {
	entry := "   " + project + "\n"
	lines := strings.SplitAfter(string(content), "\n")
	for _, l := range lines {
		if strings.TrimSpace(l) == project && strings.HasPrefix(l, "   ") {
			return content, false
		}
	}

	out := make([]string, 0, len(lines)+2)
	inserted := false
	for i := 0; i < len(lines); i++ {
		l := lines[i]
		switch {
		case strings.Contains(l, ":maxdepth:"):
			out = append(out, "   :maxdepth: 6\n")
		case !inserted && strings.Contains(l, "Indices and tables"):
			out = append(out, entry+"\n")
			inserted = true
			if i+1 < len(lines) && isUnderline(lines[i+1]) {
				i++
			}
		default:
			out = append(out, l)
		}
	}

	if !inserted {
		out = insertAfterToctreeOptions(out, entry)
	}
	result := strings.Join(out, "")
	return []byte(result), result != string(content)
}

func insertAfterToctreeOptions(lines []string, entry string) []string {
	for i, l := range lines {
		if !strings.HasPrefix(strings.TrimSpace(l), ".. toctree::") {
			continue
		}
		j := i + 1
		for j < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[j]), ":") {
			j++
		}
		ins := []string{"\n", entry}
		out := make([]string, 0, len(lines)+len(ins))
		out = append(out, lines[:j]...)
		out = append(out, ins...)
		out = append(out, lines[j:]...)
		return out
	}
	return lines
}

func isUnderline(line string) bool {
	t := strings.TrimSpace(line)
	return t != "" && strings.Trim(t, "=") == ""
}

// AddProjectToRSTIndexFile rewrites the index.rst at path in place.
func AddProjectToRSTIndexFile(path, project string) error {
	_, err := rewriteFile(path, func(b []byte) ([]byte, bool) {
		return AddProjectToRSTIndex(b, project)
	})
	return err
}

// RemoveProjectNameFromTitles shortens a module page title such as
// "pkg.sub\_mod module" into the inline literal sub_mod and regenerates its
// underline.
// Pages whose second line is not an "==" underline are left untouched.
func RemoveProjectNameFromTitles(content []byte) ([]byte, bool) {
	lines := strings.SplitAfter(string(content), "\n")
	if len(lines) < 2 || !strings.Contains(lines[1], "==") {
		return content, false
	}

	fields := strings.Fields(lines[0])
	if len(fields) == 0 {
		return content, false
	}
	dotted := strings.Split(fields[0], ".")
	title := strings.ReplaceAll("``"+dotted[len(dotted)-1]+"``", `\_`, "_")

	lines[0] = title + "\n"
	lines[1] = strings.Repeat("=", len(title)) + "\n"
	out := strings.Join(lines, "")
	return []byte(out), out != string(content)
}

// RemoveProjectNameFromTitlesDir applies RemoveProjectNameFromTitles to the
// .rst files directly inside dir and returns how many changed.
func RemoveProjectNameFromTitlesDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", dir, err)
	}
	changed := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".rst" {
			continue
		}
		ok, err := rewriteFile(filepath.Join(dir, e.Name()), RemoveProjectNameFromTitles)
		if err != nil {
			return changed, err
		}
		if ok {
			changed++
		}
	}
	return changed, nil
}
