package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docqa/internal/rag"
)

func (r *runner) askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question from the tenant's documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			question := strings.Join(args, " ")

			return r.withDeps(ctx, func(deps *Deps) error {
				resp, err := deps.Engine.Ask(ctx, rag.AskRequest{Question: question, TenantID: r.tenantID})
				if err != nil {
					return fmt.Errorf("failed to answer question: %w", err)
				}

				cmd.Println(resp.Answer)
				if len(resp.RetrievedChunks) > 0 {
					cmd.Println("\nSources:")
					for i, chunk := range resp.RetrievedChunks {
						cmd.Printf("  [%d] %s #%d (score %.3f)\n", i+1, chunk.Metadata.Filename, chunk.Metadata.ChunkIndex, chunk.Score)
					}
				}
				cmd.Printf("\n(%d ms)\n", resp.ResponseTimeMs)
				return nil
			})
		},
	}
}
