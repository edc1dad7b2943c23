package cli

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newReindexCommand(svc Services) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Drop every chunk and queue all ready documents again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if svc.Maintenance == nil {
				return errors.New("maintenance service not configured")
			}
			queued, err := svc.Maintenance.Reindex(cmd.Context())
			if err != nil {
				return fmt.Errorf("reindex failed: %w", err)
			}
			cmd.Printf("Queued %d documents for reindexing.\n", queued)
			return nil
		},
	}
}

func newCacheCommand(svc Services) *cobra.Command {
	cache := &cobra.Command{
		Use:   "cache",
		Short: "Manage the answer cache",
	}
	cache.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached answer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if svc.Maintenance == nil {
				return errors.New("maintenance service not configured")
			}
			if err := svc.Maintenance.ClearCache(cmd.Context()); err != nil {
				return fmt.Errorf("clear cache failed: %w", err)
			}
			cmd.Println("Answer cache cleared.")
			return nil
		},
	})
	return cache
}

func newIngestCommand(svc Services) *cobra.Command {
	var (
		category string
		process  bool
	)
	cmd := &cobra.Command{
		Use:   "ingest [file]",
		Short: "Upload a document for indexing",
		Long: `Stores the file and queues it for the worker. With --process the document is
also chunked, embedded and indexed before the command returns.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if svc.Ingest == nil {
				return errors.New("ingest service not configured")
			}
			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer f.Close()

			name := filepath.Base(path)
			mimeType := mime.TypeByExtension(filepath.Ext(name))
			if mimeType == "" {
				mimeType = "text/plain"
			}

			doc, err := svc.Ingest.Upload(cmd.Context(), name, mimeType, category, f)
			if err != nil {
				return fmt.Errorf("ingest failed: %w", err)
			}
			cmd.Printf("Document %s uploaded (%s).\n", doc.ID, doc.Status)

			if !process {
				return nil
			}
			if svc.Processor == nil {
				return errors.New("document processor not configured")
			}
			if err := svc.Processor.ProcessByID(cmd.Context(), doc.ID); err != nil {
				return fmt.Errorf("process %s: %w", doc.ID, err)
			}
			cmd.Printf("Document %s indexed.\n", doc.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "document category stored on every chunk")
	cmd.Flags().BoolVar(&process, "process", false, "index the document before returning")
	return cmd
}
