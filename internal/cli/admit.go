package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/pacgate/internal/admission"
	"github.com/ppiankov/pacgate/internal/audit"
	"github.com/ppiankov/pacgate/internal/constitution"
	"github.com/ppiankov/pacgate/internal/pacdoc"
	"github.com/ppiankov/pacgate/internal/registry"
)

var admitNoTrail bool

func init() {
	rootCmd.AddCommand(admitCmd)
	admitCmd.Flags().BoolVar(&admitNoTrail, "no-audit", false, "Skip writing the attempt to the audit trail")
}

var admitCmd = &cobra.Command{
	Use:   "admit <pac-file>",
	Short: "Run a PAC document through the admission gate",
	Long: "Parses the PAC text, validates the activation block, color lane,\n" +
		"END banner, forbidden zones, and lock acknowledgments in that order,\n" +
		"and prints the attempt event as JSON.\n\n" +
		"Use '-' to read the PAC from stdin. Exit code 0 on admission,\n" +
		"1 on denial.",
	Args: cobra.ExactArgs(1),
	RunE: runAdmit,
}

func runAdmit(cmd *cobra.Command, args []string) error {
	text, err := readPAC(args[0])
	if err != nil {
		return err
	}

	gate, closeTrail, err := buildGate()
	if err != nil {
		return err
	}
	defer closeTrail()

	d, err := pacdoc.Parse(text)
	if err != nil {
		return fmt.Errorf("parse PAC: %w", err)
	}

	ev, admitErr := gate.Admit(d)
	out, _ := json.MarshalIndent(ev, "", "  ")
	fmt.Println(string(out))

	if admitErr != nil {
		os.Exit(1)
	}
	return nil
}

// buildGate loads both registries and wires the audit trail unless
// --no-audit is set.
func buildGate() (*admission.Gate, func(), error) {
	store, err := registry.OpenStore(registryPath())
	if err != nil {
		return nil, nil, fmt.Errorf("load agent registry: %w", err)
	}
	engine, err := constitution.Load(locksPath())
	if err != nil {
		return nil, nil, fmt.Errorf("load lock registry: %w", err)
	}

	gate := admission.NewGate(store, engine)
	closeTrail := func() {}
	if !admitNoTrail {
		trail, err := audit.Open(trailPath())
		if err != nil {
			return nil, nil, fmt.Errorf("open audit trail: %w", err)
		}
		gate.SetTrail(trail)
		closeTrail = func() { trail.Close() }
	}
	return gate, closeTrail, nil
}

func readPAC(arg string) (string, error) {
	if arg == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return "", fmt.Errorf("read PAC file: %w", err)
	}
	return string(data), nil
}
