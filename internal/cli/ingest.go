package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docqa/internal/scan"
	"docqa/internal/service"
)

func (r *runner) ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest [path]",
		Short: "Ingest a file or every supported file under a directory",
		Long:  `Ingests .txt, .md and .pdf files. Files that fail are reported and skipped.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			files, err := scan.Scan(ctx, args[0])
			if err != nil {
				return err
			}
			if len(files) == 0 {
				cmd.Printf("No supported files found under %s\n", args[0])
				return nil
			}

			return r.withDeps(ctx, func(deps *Deps) error {
				failed := 0
				for _, f := range files {
					data, err := os.ReadFile(f.AbsPath)
					if err != nil {
						failed++
						cmd.Printf("  failed  %s: %v\n", f.RelPath, err)
						continue
					}

					result, err := deps.Documents.Upload(ctx, service.UploadRequest{
						TenantID:    r.tenantID,
						Filename:    f.RelPath,
						ContentType: f.ContentType,
						Data:        data,
					})
					if err != nil {
						failed++
						cmd.Printf("  failed  %s: %v\n", f.RelPath, err)
						continue
					}
					cmd.Printf("  ingested %s  id=%s chunks=%d embedded=%d failed=%d\n",
						f.RelPath, result.Document.ID, result.Document.ChunksCount, result.Embedded, result.Failed)
				}

				cmd.Printf("\nIngested %d of %d files\n", len(files)-failed, len(files))
				if failed > 0 {
					return fmt.Errorf("%d files failed to ingest", failed)
				}
				return nil
			})
		},
	}
}
