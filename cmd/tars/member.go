package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type joinArguments struct {
	Home  string
	Role  string
	Stake uint64
}

var joinArgs joinArguments

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Join the DAO as a verifier or agent",
	Long:  ``,
	RunE:  joinRun,
}

func init() {
	homeFlag(joinCmd, &joinArgs.Home)
	joinCmd.Flags().StringVarP(&joinArgs.Role, "role", "r", "verifier", "membership role: verifier or agent")
	joinCmd.Flags().Uint64VarP(&joinArgs.Stake, "stake", "s", 0, "stake in gwei, verifier only")
}

func joinRun(cmd *cobra.Command, args []string) error {
	n, err := openNode(joinArgs.Home)
	if err != nil {
		return err
	}
	defer n.close()

	var txRef string
	switch joinArgs.Role {
	case "verifier":
		txRef, err = n.operator.JoinAsVerifier(joinArgs.Stake)
	case "agent":
		txRef, err = n.operator.JoinAsAgent()
	default:
		return fmt.Errorf("unknown role %q", joinArgs.Role)
	}
	if err != nil {
		return err
	}
	fmt.Printf("joined as %s, tx %s\n", joinArgs.Role, txRef)
	return nil
}

type leaveArguments struct {
	Home string
}

var leaveArgs leaveArguments

var leaveCmd = &cobra.Command{
	Use:   "leave",
	Short: "Leave the DAO and reclaim the full stake",
	Long:  ``,
	RunE:  leaveRun,
}

func init() {
	homeFlag(leaveCmd, &leaveArgs.Home)
}

func leaveRun(cmd *cobra.Command, args []string) error {
	n, err := openNode(leaveArgs.Home)
	if err != nil {
		return err
	}
	defer n.close()

	txRef, err := n.operator.LeaveDAO()
	if err != nil {
		return err
	}
	fmt.Printf("left the DAO, tx %s\n", txRef)
	return nil
}
