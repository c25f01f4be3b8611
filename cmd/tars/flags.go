package main

import "github.com/spf13/cobra"

func homeFlag(cmd *cobra.Command, home *string) {
	cmd.Flags().StringVarP(home, "home", "d", "", "node home directory")
}
