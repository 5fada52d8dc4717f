package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/tendant/presign-upload/pkg/uploadurl/presigned"
)

// NewFileCommand creates the file command: request a URL, then upload
func NewFileCommand() *cobra.Command {
	var fileType string
	var retries int

	cmd := &cobra.Command{
		Use:   "file <path>",
		Short: "Upload a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filePath := args[0]
			endpoint, _ := cmd.Flags().GetString("endpoint")
			verbose, _ := cmd.Flags().GetBool("verbose")

			f, err := os.Open(filePath)
			if err != nil {
				return fmt.Errorf("failed to open file: %w", err)
			}
			defer f.Close()

			info, err := f.Stat()
			if err != nil {
				return fmt.Errorf("failed to stat file: %w", err)
			}

			fileName := filepath.Base(filePath)
			if fileType == "" {
				fileType = DetectContentType(fileName)
			}

			opts := []presigned.ClientOption{presigned.WithRetry(retries, time.Second)}
			if verbose {
				opts = append(opts, presigned.WithProgress(progressPrinter(cmd, info.Size())))
			}
			client := presigned.NewClient(opts...)

			if verbose {
				fmt.Fprintf(cmd.ErrOrStderr(), "Requesting upload URL for %s (%s)\n", fileName, fileType)
			}
			issued, err := client.RequestUploadURL(cmd.Context(), endpoint, fileName, fileType)
			if err != nil {
				return err
			}

			err = client.Upload(cmd.Context(), issued.UploadURL, f,
				presigned.WithContentType(fileType),
				presigned.WithContentLength(info.Size()))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s\nKey: %s\n", fileName, issued.Key)
			return nil
		},
	}

	cmd.Flags().StringVarP(&fileType, "type", "t", "", "content type (detected from the extension when empty)")
	cmd.Flags().IntVar(&retries, "retries", 3, "upload attempts")

	return cmd
}

// NewURLCommand creates the url command: print an upload URL without uploading
func NewURLCommand() *cobra.Command {
	var fileType string

	cmd := &cobra.Command{
		Use:   "url <file-name>",
		Short: "Request an upload URL without uploading",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			endpoint, _ := cmd.Flags().GetString("endpoint")
			if fileType == "" {
				fileType = DetectContentType(args[0])
			}

			issued, err := presigned.NewClient().RequestUploadURL(cmd.Context(), endpoint, args[0], fileType)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Key: %s\nUpload URL: %s\n", issued.Key, issued.UploadURL)
			return nil
		},
	}

	cmd.Flags().StringVarP(&fileType, "type", "t", "", "content type (detected from the extension when empty)")

	return cmd
}

// DetectContentType guesses a MIME type from the file extension
func DetectContentType(fileName string) string {
	if t := mime.TypeByExtension(filepath.Ext(fileName)); t != "" {
		return t
	}
	return "application/octet-stream"
}

func progressPrinter(cmd *cobra.Command, total int64) presigned.ProgressFunc {
	last := -1
	return func(n int64) {
		if total <= 0 {
			return
		}
		pct := int(n * 100 / total)
		if pct != last && pct%10 == 0 {
			last = pct
			fmt.Fprintf(cmd.ErrOrStderr(), "Uploaded %d%%\n", pct)
		}
	}
}
