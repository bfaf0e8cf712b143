package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/accountcell/internal/engine"
)

// CodeInfo describes one verdict code.
type CodeInfo struct {
	Code   int    `json:"code"`
	Name   string `json:"name"`
	Family string `json:"family"`
}

var families = []engine.Family{
	engine.FamilyStructural,
	engine.FamilyConsistency,
	engine.FamilyEconomic,
	engine.FamilyTemporal,
	engine.FamilyStatus,
	engine.FamilySignature,
}

// NewCodesCommand creates the codes command.
func NewCodesCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		family  string
		actions bool
	)

	cmd := &cobra.Command{
		Use:   "codes",
		Short: "List verdict codes or supported actions",
		Long: `List every rejection code with its stable number and family.

Examples:
  accountcell codes
  accountcell codes --family signature
  accountcell codes --actions`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			if actions {
				return outputActions(formatter)
			}
			return outputCodes(formatter, family)
		},
	}

	cmd.Flags().StringVar(&family, "family", "", "only list codes of this family")
	cmd.Flags().BoolVar(&actions, "actions", false, "list the supported actions instead")

	return cmd
}

func outputCodes(f *OutputFormatter, family string) error {
	if family != "" && !slices.Contains(families, engine.Family(family)) {
		return reportError(f, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("unknown family %q: must be one of %v", family, families)})
	}

	var codes []CodeInfo
	for _, c := range engine.Codes() {
		if c == 0 || (family != "" && c.Family() != engine.Family(family)) {
			continue
		}
		codes = append(codes, CodeInfo{Code: int(c), Name: c.String(), Family: string(c.Family())})
	}

	if f.JSON() {
		return f.Success(codes)
	}
	for _, c := range codes {
		f.Textf("%4d  %-12s %s", c.Code, c.Family, c.Name)
	}
	return nil
}

func outputActions(f *OutputFormatter) error {
	actions := engine.Actions()
	if f.JSON() {
		return f.Success(actions)
	}
	for _, a := range actions {
		f.Textf("%s", a)
	}
	return nil
}
