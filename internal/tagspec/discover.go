package tagspec

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DiscoverWorkspaceModules finds every workspace Python file that lies on
// the intersection of the inspector's sys_path and the project root
// (§4.5 step 2: "workspace Python file that appears on the inspector's
// sys_path ∩ project root"). Only sys_path entries that are themselves
// under root are considered workspace code; everything else is an
// installed/external package and is left to extracted_external_rules.
func DiscoverWorkspaceModules(root string, sysPath []string) ([]string, error) {
	root = filepath.Clean(root)

	var matched []string
	seen := map[string]bool{}
	for _, entry := range sysPath {
		entry = filepath.Clean(entry)
		rel, err := filepath.Rel(root, entry)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue // outside the workspace root, not workspace code
		}

		files, err := doublestar.Glob(os.DirFS(entry), "**/*.py")
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			abs := filepath.Join(entry, f)
			if !seen[abs] {
				seen[abs] = true
				matched = append(matched, abs)
			}
		}
	}
	return matched, nil
}
