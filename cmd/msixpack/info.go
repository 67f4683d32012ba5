package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agashlin/msix-packaging/container"
	"github.com/agashlin/msix-packaging/pack"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <package>",
		Short: "List the parts of a package",
		Long: `The info command opens a package and reports its parts, whether it
is signed, and the declared content types.

Example:
  msixpack info app.msix
  msixpack info app.msix --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args[0])
		},
	}
	return cmd
}

type packageInfo struct {
	Path         string   `json:"path"`
	Parts        []string `json:"parts"`
	Signed       bool     `json:"signed"`
	ContentTypes string   `json:"contentTypes,omitempty"`
}

func runInfo(packagePath string) error {
	r, err := container.OpenReader(packagePath)
	if err != nil {
		return fmt.Errorf("failed to open package: %w", err)
	}
	defer r.Close()

	info := packageInfo{
		Path:   packagePath,
		Parts:  r.Parts(),
		Signed: r.HasPart(pack.SignatureP7X),
	}
	if ct, err := r.PartBytes(pack.ContentTypesFile); err == nil {
		info.ContentTypes = string(ct)
	}

	if jsonOut {
		return printJSON(info)
	}

	printInfo("Package: %s\n", info.Path)
	printInfo("Signed: %v\n", info.Signed)
	printInfo("Parts (%d):\n", len(info.Parts))
	for _, name := range info.Parts {
		printInfo("  %s\n", name)
	}
	if info.ContentTypes != "" {
		printInfo("\nContent types:\n%s\n", info.ContentTypes)
	}
	return nil
}
