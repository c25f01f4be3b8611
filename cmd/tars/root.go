package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/narasim-teja/tars/service"
)

var homeDir string

var rootCmd = &cobra.Command{
	Use:   "tars",
	Short: "TARS turns photo evidence into funded governance proposals",
	Long: `An autonomous evidence-to-governance node: verifies photo
evidence, scores community impact and publishes funding proposals
to a stake-weighted DAO.`,
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, args)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&homeDir, "home", "d", "", "node home directory")
}

func run(cmd *cobra.Command, args []string) {
	n, err := openNode(homeDir)
	if err != nil {
		log.Fatalf("open node: %v", err)
	}
	defer n.close()

	pipe, err := n.buildPipeline()
	if err != nil {
		log.Fatalf("build pipeline: %v", err)
	}

	var watcher *service.Watcher
	if n.cfg.WatchDir != "" {
		watcher = service.NewWatcher(n.cfg.WatchDir, pipe, n.logger)
		if err := watcher.Start(); err != nil {
			log.Fatalf("start watcher: %v", err)
		}
		defer watcher.Stop()
	}

	svc := service.NewService(n.cfg.Listen, pipe, n.chain, n.records, n.logger)
	go func() {
		if err := svc.Start(); err != nil {
			log.Fatalf("service: %v", err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}
