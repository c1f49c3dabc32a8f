// Package cli implements the docqactl command tree. Commands run the same
// services as the API server without the HTTP layer.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"docqa/internal/rag"
	"docqa/internal/service"
)

// Deps are the services the commands need.
type Deps struct {
	Documents service.DocumentService
	Engine    rag.Engine
}

// Loader opens the services on first use. The returned close function
// releases them.
type Loader func(ctx context.Context) (*Deps, func() error, error)

type runner struct {
	load     Loader
	tenantID string
}

// NewRootCmd builds the command tree.
func NewRootCmd(load Loader) *cobra.Command {
	r := &runner{load: load}

	root := &cobra.Command{
		Use:           "docqactl",
		Short:         "Ingest documents and ask questions about them",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&r.tenantID, "tenant", "t", "", "Tenant (user) ID that owns the documents")
	_ = root.MarkPersistentFlagRequired("tenant")

	root.AddCommand(r.ingestCmd())
	root.AddCommand(r.askCmd())
	root.AddCommand(r.documentsCmd())
	return root
}

// withDeps loads the services, runs fn and closes them.
func (r *runner) withDeps(ctx context.Context, fn func(*Deps) error) error {
	if r.tenantID == "" {
		return errors.New("a --tenant is required")
	}
	deps, closeFn, err := r.load(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeFn != nil {
			_ = closeFn()
		}
	}()
	return fn(deps)
}
