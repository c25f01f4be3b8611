package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

type processArguments struct {
	Home string
	File string
}

var processArgs processArguments

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run one evidence image through the pipeline",
	Long:  ``,
	RunE:  processRun,
}

func init() {
	homeFlag(processCmd, &processArgs.Home)
	processCmd.Flags().StringVarP(&processArgs.File, "file", "f", "", "evidence image path")
	processCmd.MarkFlagRequired("file")
}

func processRun(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(processArgs.File)
	if err != nil {
		return err
	}

	n, err := openNode(processArgs.Home)
	if err != nil {
		return err
	}
	defer n.close()

	pipe, err := n.buildPipeline()
	if err != nil {
		return err
	}

	out := pipe.Process(context.Background(), raw, filepath.Base(processArgs.File))
	dat, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(dat))
	return nil
}
