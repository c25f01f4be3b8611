package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

type voteArguments struct {
	Home    string
	Id      string
	Against bool
}

var voteArgs voteArguments

var voteCmd = &cobra.Command{
	Use:   "vote",
	Short: "Cast a stake-weighted vote on a proposal",
	Long:  ``,
	RunE:  voteRun,
}

func init() {
	homeFlag(voteCmd, &voteArgs.Home)
	voteCmd.Flags().StringVarP(&voteArgs.Id, "id", "i", "", "proposal id")
	voteCmd.Flags().BoolVarP(&voteArgs.Against, "against", "a", false, "vote against instead of for")
	voteCmd.MarkFlagRequired("id")
}

func voteRun(cmd *cobra.Command, args []string) error {
	n, err := openNode(voteArgs.Home)
	if err != nil {
		return err
	}
	defer n.close()

	txRef, err := n.operator.Vote(common.HexToHash(voteArgs.Id), !voteArgs.Against)
	if err != nil {
		return err
	}
	fmt.Printf("vote recorded, tx %s\n", txRef)
	return nil
}
