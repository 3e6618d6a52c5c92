package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// runCommand performs a single daily cycle now
func runCommand(a *app) *cobra.Command {

	return &cobra.Command{
		Use:   "run",
		Short: "Run today's tray cycle once",
		RunE: func(cmd *cobra.Command, args []string) error {

			runner, closeFn, err := a.newRunner(nil)

			if err != nil {
				return err
			}

			defer closeFn()

			rep, err := runner.Run(cmd.Context())

			if err != nil {
				return fmt.Errorf("run %s: %w", rep.RunID, err)
			}

			for _, st := range rep.Stations {
				status := "no plant"

				switch {
				case st.Err != nil:
					status = "classification failed"
				case st.Classified:
					status = st.Prediction.String()
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%-8s images=%d %s\n", st.Label, st.Images, status)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "signal %v\n", []int(rep.Signal))

			return nil
		},
	}
}
