package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
	"sales-intent-go/internal/dataset"
	"sales-intent-go/internal/terminology"
)

func (c *cli) store() (*terminology.Store, error) {
	return do.Invoke[*terminology.Store](c.injector)
}

func (c *cli) rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage the terminology dictionary",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Print rules in application order",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				store, err := c.store()
				if err != nil {
					return err
				}
				for _, r := range store.Snapshot().Rules() {
					fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", r.Wrong, r.Correct)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "add WRONG [CORRECT]",
			Short: "Add or update a rule; without CORRECT the term is deleted from text",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := c.store()
				if err != nil {
					return err
				}
				v, err := store.Upsert(cmd.Context(), args[0], argOr(args, 1))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d\n", v)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete WRONG",
			Short: "Remove a rule",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := c.store()
				if err != nil {
					return err
				}
				v, ok, err := store.Delete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("%w: %q", terminology.ErrRuleNotFound, args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d\n", v)
				return nil
			},
		},
		&cobra.Command{
			Use:   "edit OLD NEW [CORRECT]",
			Short: "Rename a rule in place",
			Args:  cobra.RangeArgs(2, 3),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := c.store()
				if err != nil {
					return err
				}
				v, err := store.Edit(cmd.Context(), args[0], args[1], argOr(args, 2))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d\n", v)
				return nil
			},
		},
		&cobra.Command{
			Use:   "import FILE",
			Short: "Merge rules from a .xlsx sheet, a .json document or a text file of \"wrong -> correct\" lines",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				rules, skipped, err := readRules(args[0])
				if err != nil {
					return err
				}
				store, err := c.store()
				if err != nil {
					return err
				}
				added, v, err := store.Import(cmd.Context(), rules)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "added %d of %d rules, version %d\n", added, len(rules), v)
				for _, line := range skipped {
					fmt.Fprintf(out, "skipped: %s\n", line)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "stats",
			Short: "Print rule counts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				store, err := c.store()
				if err != nil {
					return err
				}
				snap := store.Snapshot()
				return printJSON(cmd.OutOrStdout(), struct {
					Version uint64 `json:"version"`
					terminology.Stats
				}{snap.Version, snap.Stats()})
			},
		},
		&cobra.Command{
			Use:   "test TEXT",
			Short: "Show how the current rules rewrite TEXT",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := c.store()
				if err != nil {
					return err
				}
				text := strings.Join(args, " ")
				out := store.Normalize(text)
				fmt.Fprintf(cmd.OutOrStdout(), "original:  %s\ncorrected: %s\nchanged:   %t\n", text, out, terminology.Changed(text, out))
				return nil
			},
		},
	)
	return cmd
}

func readRules(path string) ([]terminology.Rule, []string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".xlsx" {
		rules, err := dataset.LoadRules(path)
		return rules, nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	if ext == ".json" {
		rules, err := terminology.ReadDocument(bytes.NewReader(b))
		return rules, nil, err
	}
	rules, skipped := terminology.ParseBatch(string(b))
	return rules, skipped, nil
}

func argOr(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
