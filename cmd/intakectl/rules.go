package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kirillkom/document-intake/internal/core/domain"
	"github.com/kirillkom/document-intake/internal/infrastructure/repository/yamlfile"
)

func newRulesCmd(root *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the document types in the rules file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if root.rulesFile == "" {
				return errors.New("--rules (or RULES_FILE) is required")
			}
			store, err := yamlfile.Load(root.rulesFile)
			if err != nil {
				return err
			}
			settings := store.Settings()

			type row struct {
				domain.RuleRecord
				MinWordCount string `json:"min_word_count,omitempty"`
			}
			rows := make([]row, 0)
			for _, rec := range store.Rules() {
				rows = append(rows, row{RuleRecord: rec, MinWordCount: settings[domain.MinWordCountSettingKey(rec.ID)]})
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tREQUIRED\tFORBIDDEN\tEXTENSIONS\tMAX MB\tMIN WORDS")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					r.ID,
					joinOrDash(r.RequiredKeywords),
					joinOrDash(r.ForbiddenKeywords),
					joinOrDash(r.AllowedExtensions),
					formatCap(r.MaxAggregateSizeMB),
					dashIfEmpty(r.MinWordCount),
				)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	return cmd
}

func joinOrDash(values []string) string {
	return dashIfEmpty(strings.Join(values, ","))
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatCap(mb float64) string {
	if mb <= 0 {
		return "-"
	}
	return fmt.Sprintf("%g", mb)
}
