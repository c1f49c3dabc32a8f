package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (r *runner) documentsCmd() *cobra.Command {
	documentsCmd := &cobra.Command{
		Use:   "documents",
		Short: "Manage ingested documents",
	}

	documentsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the tenant's documents, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return r.withDeps(ctx, func(deps *Deps) error {
				docs, err := deps.Documents.List(ctx, r.tenantID)
				if err != nil {
					return fmt.Errorf("failed to list documents: %w", err)
				}
				if len(docs) == 0 {
					cmd.Println("No documents found")
					return nil
				}
				for _, doc := range docs {
					cmd.Printf("  %s  %s  %d bytes  %d chunks  %s\n",
						doc.ID, doc.Filename, doc.FileSize, doc.ChunksCount, doc.CreatedAt.Format("2006-01-02 15:04:05"))
				}
				cmd.Printf("\nTotal: %d documents\n", len(docs))
				return nil
			})
		},
	})

	documentsCmd.AddCommand(&cobra.Command{
		Use:   "delete [doc-id]",
		Short: "Delete a document and its embeddings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return r.withDeps(ctx, func(deps *Deps) error {
				outcome, err := deps.Documents.Delete(ctx, r.tenantID, args[0])
				if err != nil {
					return fmt.Errorf("failed to delete document: %w", err)
				}
				if outcome.Partial() {
					cmd.Printf("Deleted document %s; embedding cleanup failed: %v\n", args[0], outcome.VectorErr)
					return nil
				}
				cmd.Printf("Deleted document %s\n", args[0])
				return nil
			})
		},
	})

	return documentsCmd
}
