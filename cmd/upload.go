package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ragcompare/src/core/document"
	"ragcompare/src/log"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a document to MinIO for use with document.source minio",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().Bool("validate", true, "reject articles outside the supported word range")
}

func runUpload(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if validate, _ := cmd.Flags().GetBool("validate"); validate {
		text, err := document.Extract(path, data)
		if err != nil {
			return err
		}
		if _, err := document.ValidateArticle(text); err != nil {
			return err
		}
	}

	ctx, cancel := notifyContext()
	defer cancel()

	svc, err := newMinioService()
	if err != nil {
		return err
	}
	bucket, object, err := minioLocation()
	if err != nil {
		return err
	}
	if object == "" {
		object = filepath.Base(path)
	}
	if err := svc.EnsureBucketExists(ctx, bucket); err != nil {
		return err
	}
	if err := svc.PutObject(ctx, bucket, object, data); err != nil {
		return err
	}

	log.Info("document uploaded", "bucket", bucket, "object", object, "bytes", len(data))
	fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s to %s/%s\n", path, bucket, object)
	return nil
}
