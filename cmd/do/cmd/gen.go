package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func GenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gen",
		Short: "Regenerate templ components when a .templ file changed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(".")
		},
	}
}

func runGen(root string) error {
	stale, err := staleTemplFiles(root)
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		fmt.Println("[templ] skipped")
		return nil
	}

	if _, err := exec.LookPath("templ"); err != nil {
		fmt.Println("Missing binary: templ")
		fmt.Println("Install with:")
		fmt.Println("  go install github.com/a-h/templ/cmd/templ@v0.3.960")
		return fmt.Errorf("templ not found")
	}

	start := time.Now()
	gen := exec.Command("templ", "generate", "-path", root)
	gen.Stdout = os.Stdout
	gen.Stderr = os.Stderr
	if err := gen.Run(); err != nil {
		return fmt.Errorf("templ: %w", err)
	}

	fmt.Printf("[templ] %d file(s) done (%s)\n", len(stale), time.Since(start).Round(time.Millisecond))
	return nil
}

// staleTemplFiles lists .templ files whose _templ.go is missing or older.
func staleTemplFiles(root string) ([]string, error) {
	var stale []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && (strings.HasPrefix(d.Name(), ".") || strings.HasPrefix(d.Name(), "_") || d.Name() == "tmp") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".templ") {
			return nil
		}
		out := strings.TrimSuffix(path, ".templ") + "_templ.go"
		if !isUpToDate(out, path) {
			stale = append(stale, path)
		}
		return nil
	})
	return stale, err
}

func isUpToDate(output, input string) bool {
	outInfo, err := os.Stat(output)
	if err != nil {
		return false
	}
	inInfo, err := os.Stat(input)
	if err != nil {
		return true
	}
	return !inInfo.ModTime().After(outInfo.ModTime())
}
