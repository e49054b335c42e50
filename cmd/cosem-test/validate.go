package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cosem-conformance/conformance-go/internal/testharness/loader"
)

func newValidateCmd() *cobra.Command {
	var external string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load the builtin and external scripts without testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := loader.Builtin()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "builtin: %d scripts covering %d classes\n",
				len(catalog.Definitions), len(catalog.ClassesCovered()))

			if external == "" {
				return nil
			}
			n, err := loader.ValidateExternal(external)
			fmt.Fprintf(out, "external: %d scripts loaded\n", n)
			return err
		},
	}
	cmd.Flags().StringVar(&external, "external", "", "Directory of external test scripts")
	return cmd
}
