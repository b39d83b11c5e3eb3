package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kirillkom/document-intake/internal/core/domain"
	"github.com/kirillkom/document-intake/internal/core/usecase"
	"github.com/kirillkom/document-intake/internal/infrastructure/extractor"
	"github.com/kirillkom/document-intake/internal/infrastructure/repository/yamlfile"
)

func newValidateCmd(root *rootOptions) *cobra.Command {
	var docTypeID string

	cmd := &cobra.Command{
		Use:   "validate --doc-type <id> <file>...",
		Short: "Validate files as one submission and print the verdict as JSON",
		Long: `Runs the same validation as the API against a local rules file.

Exit status is 0 when the submission passes, 1 when it fails, 3 when it needs
OCR before a decision can be made, and 2 on usage or configuration errors.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if root.rulesFile == "" {
				return errors.New("--rules (or RULES_FILE) is required")
			}
			if docTypeID == "" {
				return errors.New("--doc-type is required")
			}

			store, err := yamlfile.Load(root.rulesFile)
			if err != nil {
				return err
			}

			files := make([]domain.UploadedFile, 0, len(args))
			for _, path := range args {
				content, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				files = append(files, domain.NewUploadedFile(filepath.Base(path), content))
			}

			uc := usecase.NewValidateSubmissionUseCase(store, extractor.NewRegistry(), nil)
			verdict, err := uc.Validate(cmd.Context(), docTypeID, files)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(verdict); err != nil {
				return fmt.Errorf("encode verdict: %w", err)
			}

			switch verdict.Outcome() {
			case domain.OutcomePass:
				return nil
			case domain.OutcomeDeferred:
				return exitCodeError{code: exitDeferred}
			default:
				return exitCodeError{code: exitFail}
			}
		},
	}
	cmd.Flags().StringVar(&docTypeID, "doc-type", "", "Document type id to validate against")
	return cmd
}
