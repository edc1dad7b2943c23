// Package cli implements faqctl, the operator command line for the FAQ index.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kirillkom/campus-faq-assistant/internal/core/ports"
)

// Services are the use cases faqctl drives. Processor may be nil when documents
// are only processed by the worker.
type Services struct {
	Query       ports.FAQQueryService
	Ingest      ports.DocumentIngestor
	Processor   ports.DocumentProcessor
	Maintenance ports.MaintenanceService
}

func NewRootCommand(svc Services) *cobra.Command {
	root := &cobra.Command{
		Use:   "faqctl",
		Short: "Operate the campus FAQ assistant",
		Long: `faqctl answers and debugs FAQ queries against the live index and runs
maintenance tasks such as reindexing and clearing the answer cache.`,
		SilenceUsage: true,
	}
	root.SetOut(os.Stdout)

	root.AddCommand(
		newAskCommand(svc),
		newSearchCommand(svc),
		newReindexCommand(svc),
		newCacheCommand(svc),
		newIngestCommand(svc),
	)
	return root
}
