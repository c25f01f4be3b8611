package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/narasim-teja/tars/pipeline"
)

type batchArguments struct {
	Home string
	Dir  string
}

var batchArgs batchArguments

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run every image in a directory through the pipeline",
	Long:  ``,
	RunE:  batchRun,
}

func init() {
	homeFlag(batchCmd, &batchArgs.Home)
	batchCmd.Flags().StringVarP(&batchArgs.Dir, "dir", "f", "", "directory of evidence images")
	batchCmd.MarkFlagRequired("dir")
}

func batchRun(cmd *cobra.Command, args []string) error {
	entries, err := os.ReadDir(batchArgs.Dir)
	if err != nil {
		return err
	}

	items := make([]pipeline.Item, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(batchArgs.Dir, e.Name()))
		if err != nil {
			return err
		}
		items = append(items, pipeline.Item{Name: e.Name(), Raw: raw, Hint: e.Name()})
	}

	n, err := openNode(batchArgs.Home)
	if err != nil {
		return err
	}
	defer n.close()

	pipe, err := n.buildPipeline()
	if err != nil {
		return err
	}

	sum := pipe.ProcessBatch(context.Background(), items)
	dat, _ := json.MarshalIndent(sum, "", "  ")
	fmt.Println(string(dat))
	return nil
}
