package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/narasim-teja/tars/config"
	"github.com/narasim-teja/tars/crypto"
)

type initArguments struct {
	Home      string
	ChainId   string
	Overwrite bool
}

var initArgs initArguments

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the node home: operator key and configuration file",
	Long:  ``,
	Args:  cobra.ExactArgs(0),
	RunE:  initRun,
}

func init() {
	homeFlag(initCmd, &initArgs.Home)
	initCmd.Flags().StringVarP(&initArgs.ChainId, "chain-id", "c", "", "chain id salted into signed transactions")
	initCmd.Flags().BoolVarP(&initArgs.Overwrite, "overwrite", "o", false, "overwrite existing configuration")
}

func initRun(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig(initArgs.Home)
	if initArgs.ChainId != "" {
		cfg.ChainId = initArgs.ChainId
	}
	if err := cfg.EnsureDirs(); err != nil {
		return err
	}

	if _, err := os.Stat(cfg.ConfigFile()); err == nil && !initArgs.Overwrite {
		return fmt.Errorf("config file %s exists, use --overwrite to replace", cfg.ConfigFile())
	}
	if err := config.WriteConfigFile(cfg.ConfigFile(), cfg); err != nil {
		return err
	}

	var pv *crypto.PV
	if _, err := os.Stat(cfg.KeyFile()); err == nil && !initArgs.Overwrite {
		pv, err = crypto.LoadFilePV(cfg.KeyFile())
		if err != nil {
			return err
		}
	} else {
		pv, err = crypto.GenerateFilePV(cfg.KeyFile())
		if err != nil {
			return err
		}
	}

	fmt.Printf("home: %s\nchain id: %s\noperator: %s\n", cfg.Home, cfg.ChainId, pv.Address().Hex())
	return nil
}
