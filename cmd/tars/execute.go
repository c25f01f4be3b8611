package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

type executeArguments struct {
	Home string
	Id   string
}

var executeArgs executeArguments

var executeCmd = &cobra.Command{
	Use:   "execute",
	Short: "Execute a passed proposal, releasing funds to the beneficiary",
	Long:  ``,
	RunE:  executeRun,
}

func init() {
	homeFlag(executeCmd, &executeArgs.Home)
	executeCmd.Flags().StringVarP(&executeArgs.Id, "id", "i", "", "proposal id")
	executeCmd.MarkFlagRequired("id")
}

func executeRun(cmd *cobra.Command, args []string) error {
	n, err := openNode(executeArgs.Home)
	if err != nil {
		return err
	}
	defer n.close()

	txRef, err := n.operator.ExecuteProposal(common.HexToHash(executeArgs.Id))
	if err != nil {
		return err
	}
	fmt.Printf("proposal executed, tx %s\n", txRef)
	return nil
}
