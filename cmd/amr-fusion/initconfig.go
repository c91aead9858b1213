package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inodb/amr-fusion/internal/config"
)

func newInitConfigCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init-config <path>",
		Short: "Write a starter run configuration",
		Long:  "Write a YAML run configuration with every supported key and its default value.",
		Example: `  amr-fusion init-config configs/run.yaml
  amr-fusion run --config configs/run.yaml`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteDefault(args[0], force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote starter config to %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
