package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

type proposalsArguments struct {
	Home string
	Id   string
}

var proposalsArgs proposalsArguments

var proposalsCmd = &cobra.Command{
	Use:   "proposals",
	Short: "List proposals with their derived status",
	Long:  ``,
	RunE:  proposalsRun,
}

func init() {
	homeFlag(proposalsCmd, &proposalsArgs.Home)
	proposalsCmd.Flags().StringVarP(&proposalsArgs.Id, "id", "i", "", "proposal id")
}

func proposalsRun(cmd *cobra.Command, args []string) error {
	n, err := openNode(proposalsArgs.Home)
	if err != nil {
		return err
	}
	defer n.close()

	now := time.Now()
	if proposalsArgs.Id != "" {
		p, status, err := n.chain.GetProposal(common.HexToHash(proposalsArgs.Id), now)
		if err != nil {
			return err
		}
		dat, _ := json.MarshalIndent(p, "", "  ")
		fmt.Printf("%s\nstatus: %s\n", string(dat), status)
		return nil
	}

	proposals, err := n.chain.ListProposals()
	if err != nil {
		return err
	}
	for _, p := range proposals {
		fmt.Printf("%s  for=%d against=%d amount=%d status=%s\n",
			p.ID.Hex(), p.ForVotes, p.AgainstVotes, p.Amount, p.Status(now))
	}
	fmt.Printf("total: %d\n", len(proposals))
	return nil
}
