package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/ppiankov/pacgate/internal/activation"
	"github.com/ppiankov/pacgate/internal/pacdoc"
	"github.com/ppiankov/pacgate/internal/registry"
	"github.com/ppiankov/pacgate/internal/structural"
)

var (
	lintGlob   string
	lintDiff   string
	lintFormat string
)

func init() {
	rootCmd.AddCommand(lintCmd)
	lintCmd.Flags().StringVar(&lintGlob, "glob", "", "Doublestar pattern for PAC files, e.g. 'pacs/**/*.md'")
	lintCmd.Flags().StringVar(&lintDiff, "diff", "", "Lint files changed per git diff --name-only <range>, e.g. 'main...HEAD'")
	lintCmd.Flags().StringVarP(&lintFormat, "format", "f", "text", "Output format (text|json)")
}

var lintCmd = &cobra.Command{
	Use:   "lint [files...]",
	Short: "Check PAC documents for structural and identity violations",
	Long: "Runs the structural integrity checks over each PAC file and, when an\n" +
		"activation block is present, verifies its identity claims against the\n" +
		"agent registry.\n\n" +
		"Exit code 0 when every file is clean, 1 otherwise. Use in CI to keep\n" +
		"malformed PACs out of the repository.",
	RunE: runLint,
}

// lintFinding is one file's lint verdict.
type lintFinding struct {
	File       string   `json:"file"`
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations,omitempty"`
}

func runLint(cmd *cobra.Command, args []string) error {
	files, err := lintTargets(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no PAC files to lint; pass paths, --glob, or --diff")
	}

	reg, err := registry.Load(registryPath())
	if err != nil {
		return fmt.Errorf("load agent registry: %w", err)
	}

	var findings []lintFinding
	failed := false
	for _, path := range files {
		f := lintFile(path, reg)
		if !f.Valid {
			failed = true
		}
		findings = append(findings, f)
	}

	switch lintFormat {
	case "json":
		out, err := json.MarshalIndent(findings, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	default:
		for _, f := range findings {
			if f.Valid {
				fmt.Printf("OK   %s\n", f.File)
				continue
			}
			fmt.Printf("FAIL %s\n", f.File)
			for _, v := range f.Violations {
				fmt.Printf("     %s\n", v)
			}
		}
	}

	if failed {
		os.Exit(1)
	}
	return nil
}

// lintFile runs the structural checks and, when a block is present, the
// activation validation. Findings accumulate; one bad check does not
// hide the rest.
func lintFile(path string, reg *registry.Registry) lintFinding {
	f := lintFinding{File: path}

	data, err := os.ReadFile(path)
	if err != nil {
		f.Violations = append(f.Violations, fmt.Sprintf("read: %v", err))
		return f
	}
	text := string(data)

	res := structural.CheckIntegrity(text)
	for _, v := range res.Violations {
		f.Violations = append(f.Violations, v.String())
	}

	if block, found := pacdoc.ParseBlock(text); found {
		pacID := pacdoc.PACID(text)
		if validated, err := activation.NewBlock(*block); err != nil {
			f.Violations = append(f.Violations, err.Error())
		} else if _, err := activation.NewValidator(reg).Validate(validated, pacID); err != nil {
			f.Violations = append(f.Violations, err.Error())
		}
	}

	f.Valid = len(f.Violations) == 0
	return f
}

// lintTargets resolves the file list from positional args, the glob
// flag, and the diff flag, deduplicated in order.
func lintTargets(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(path string) {
		if path == "" || seen[path] {
			return
		}
		seen[path] = true
		out = append(out, path)
	}

	for _, a := range args {
		add(a)
	}

	if lintGlob != "" {
		matches, err := doublestar.FilepathGlob(lintGlob)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern: %w", err)
		}
		for _, m := range matches {
			add(m)
		}
	}

	if lintDiff != "" {
		raw, err := exec.Command("git", "diff", "--name-only", lintDiff).Output()
		if err != nil {
			return nil, fmt.Errorf("git diff: %w", err)
		}
		for _, line := range strings.Split(string(raw), "\n") {
			add(strings.TrimSpace(line))
		}
	}

	return out, nil
}
