package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type depositArguments struct {
	Home   string
	Amount uint64
}

var depositArgs depositArguments

var depositCmd = &cobra.Command{
	Use:   "deposit",
	Short: "Deposit funds into the DAO treasury",
	Long:  ``,
	RunE:  depositRun,
}

func init() {
	homeFlag(depositCmd, &depositArgs.Home)
	depositCmd.Flags().Uint64VarP(&depositArgs.Amount, "amount", "a", 0, "amount in gwei")
	depositCmd.MarkFlagRequired("amount")
}

func depositRun(cmd *cobra.Command, args []string) error {
	n, err := openNode(depositArgs.Home)
	if err != nil {
		return err
	}
	defer n.close()

	txRef, err := n.operator.Deposit(depositArgs.Amount)
	if err != nil {
		return err
	}
	fmt.Printf("deposited %d, tx %s\n", depositArgs.Amount, txRef)
	return nil
}
