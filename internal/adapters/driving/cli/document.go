package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var documentJSON bool

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Inspect ingested documents",
	Long:  `List ingested documents and view their details or extracted text.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentContentCmd = &cobra.Command{
	Use:   "content [doc-id]",
	Short: "Print the extracted document text",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentContent,
}

func init() {
	documentListCmd.Flags().BoolVar(&documentJSON, "json", false, "output documents as JSON")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentContentCmd)
	rootCmd.AddCommand(documentCmd)
}

type documentSummary struct {
	ID         string `json:"id"`
	SourceName string `json:"source_name"`
	Title      string `json:"title"`
	URI        string `json:"uri"`
	PageCount  int    `json:"page_count"`
	WordCount  int    `json:"word_count"`
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if corpusService == nil {
		return errors.New("corpus service not configured")
	}

	docs, err := corpusService.ListDocuments(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if documentJSON {
		summaries := make([]documentSummary, 0, len(docs))
		for i := range docs {
			summaries = append(summaries, documentSummary{
				ID:         docs[i].ID,
				SourceName: docs[i].SourceName,
				Title:      docs[i].Title,
				URI:        docs[i].URI,
				PageCount:  docs[i].PageCount,
				WordCount:  docs[i].WordCount,
			})
		}
		return writeJSON(cmd, summaries)
	}

	if len(docs) == 0 {
		cmd.Println("No documents indexed.")
		return nil
	}

	cmd.Println("Documents:")
	cmd.Println()
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    Source: %s\n", docs[i].SourceName)
		if docs[i].Title != "" && docs[i].Title != docs[i].SourceName {
			cmd.Printf("    Title: %s\n", docs[i].Title)
		}
		cmd.Printf("    Words: %d\n", docs[i].WordCount)
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if corpusService == nil {
		return errors.New("corpus service not configured")
	}

	doc, err := corpusService.GetDocument(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Title:    %s\n", doc.Title)
	cmd.Printf("  Source:   %s\n", doc.SourceName)
	if doc.URI != "" {
		cmd.Printf("  URI:      %s\n", doc.URI)
	}
	if doc.PageCount > 0 {
		cmd.Printf("  Pages:    %d\n", doc.PageCount)
	}
	cmd.Printf("  Words:    %d\n", doc.WordCount)
	cmd.Printf("  Chars:    %d\n", doc.CharCount)
	cmd.Printf("  Created:  %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func runDocumentContent(cmd *cobra.Command, args []string) error {
	if corpusService == nil {
		return errors.New("corpus service not configured")
	}

	doc, err := corpusService.GetDocument(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document content: %w", err)
	}

	cmd.Println(doc.Text)
	return nil
}
