package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/agashlin/msix-packaging/container"
	"github.com/agashlin/msix-packaging/signature"
)

func init() {
	rootCmd.AddCommand(newSignCmd())
}

func newSignCmd() *cobra.Command {
	var (
		pfxPath  string
		password string
		output   string
	)
	cmd := &cobra.Command{
		Use:   "sign <package>",
		Short: "Add a digital signature to an existing package",
		Long: `The sign command re-opens an existing package, extends its content
types manifest with the signature declaration, and appends the
AppxSignature.p7x part. Signing an already-signed package replaces the
signature without duplicating manifest entries.

Example:
  msixpack sign app.msix --pfx signing.pfx
  msixpack sign app.msix --pfx signing.pfx --password secret -o app-signed.msix`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSign(args[0], pfxPath, password, output)
		},
	}
	cmd.Flags().StringVar(&pfxPath, "pfx", "", "PFX/PKCS#12 bundle with the signing certificate and key")
	cmd.Flags().StringVar(&password, "password", "", "Password for the PFX bundle")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default: overwrite the input package)")
	_ = cmd.MarkFlagRequired("pfx")
	return cmd
}

func runSign(packagePath, pfxPath, password, output string) error {
	pfxData, err := os.ReadFile(pfxPath)
	if err != nil {
		return fmt.Errorf("failed to read pfx: %w", err)
	}
	creds, err := signature.LoadPFX(pfxData, password)
	if err != nil {
		return fmt.Errorf("failed to load signing credentials: %w", err)
	}
	slog.Debug("loaded signing certificate", "subject", creds.Certificate.Subject.String())

	src, err := container.OpenReader(packagePath)
	if err != nil {
		return fmt.Errorf("failed to open package: %w", err)
	}
	defer src.Close()

	var signed bytes.Buffer
	if err := container.Resign(src, &signed, creds); err != nil {
		return fmt.Errorf("failed to sign package: %w", err)
	}

	if output == "" {
		output = packagePath
	}
	sink := &container.FileSink{Path: output}
	if err := sink.WritePackage(signed.Bytes()); err != nil {
		return fmt.Errorf("failed to write signed package: %w", err)
	}

	printInfo("Signed %s -> %s\n", packagePath, output)
	return nil
}
