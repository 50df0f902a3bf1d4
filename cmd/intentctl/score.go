package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
	"sales-intent-go/internal/dataset"
	"sales-intent-go/internal/processor"
)

func (c *cli) scoreCmd() *cobra.Command {
	var subject, fileID string
	cmd := &cobra.Command{
		Use:   "score FILE",
		Short: "Score a plain-text transcript (- reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				text []byte
				err  error
			)
			if args[0] == "-" {
				text, err = io.ReadAll(cmd.InOrStdin())
			} else {
				text, err = os.ReadFile(args[0])
				if fileID == "" {
					fileID = filepath.Base(args[0])
				}
			}
			if err != nil {
				return fmt.Errorf("read transcript: %w", err)
			}
			proc, err := do.Invoke[*processor.Processor](c.injector)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), proc.ProcessText(cmd.Context(), fileID, subject, string(text)))
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "customer name used in the prompt")
	cmd.Flags().StringVar(&fileID, "file-id", "", "id to report (default: file name)")
	return cmd
}

func (c *cli) batchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch SHEET.xlsx",
		Short: "Score every call in a spreadsheet and print the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := dataset.Load(args[0])
			if err != nil {
				return err
			}
			proc, err := do.Invoke[*processor.Processor](c.injector)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), proc.ProcessBatch(cmd.Context(), records))
		},
	}
}
