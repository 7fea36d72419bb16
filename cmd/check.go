package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// exitError carries a non-zero exit status without printing cobra usage.
type exitError struct {
	status int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("check finished with status %d", e.status)
}

var checkCmd = &cobra.Command{
	Use:   "check <address>",
	Short: "Check a single address against the region catalog",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService(cfg)
		if err != nil {
			return err
		}

		status, body := svc.Check(cmd.Context(), strings.Join(args, " ")).Response()
		fmt.Fprintln(cmd.OutOrStdout(), body)

		if status >= 400 {
			return &exitError{status: status}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
