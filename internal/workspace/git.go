package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
)

const gitignore = `# metadocs build outputs
site/
*/build/
__pycache__/
`

// InitGit turns dir into a git repository ignoring the build outputs and
// stages the .gitignore.
func InitGit(dir string) error {
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		return fmt.Errorf("init repository: %w", err)
	}
	// #nosec G306 -- .gitignore is a shared project file
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("write .gitignore: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	if _, err := wt.Add(".gitignore"); err != nil {
		return fmt.Errorf("stage .gitignore: %w", err)
	}
	return nil
}
