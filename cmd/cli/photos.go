package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bigredeye/raport/internal/config"
	"github.com/bigredeye/raport/pkg/targz"
)

func makePhotosCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photos",
		Short: "Back up or restore uploaded photos",
	}

	var out string
	backup := &cobra.Command{
		Use:   "backup",
		Short: "Pack the uploads directory into a tar.gz archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.ParseConfig(configPath)
			if err != nil {
				return err
			}
			return backupPhotos(conf.Uploads.Dir, out)
		},
	}
	backup.Flags().StringVar(&out, "out", "photos.tar.gz", "Archive to write")

	var in string
	restore := &cobra.Command{
		Use:   "restore",
		Short: "Unpack a tar.gz archive into the uploads directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.ParseConfig(configPath)
			if err != nil {
				return err
			}
			return restorePhotos(in, conf.Uploads.Dir)
		},
	}
	restore.Flags().StringVar(&in, "file", "", "Archive to read")
	check(restore.MarkFlagRequired("file"))

	cmd.AddCommand(backup, restore)
	return cmd
}

func backupPhotos(dir, out string) error {
	f, err := os.Create(out)
	if err != nil {
		return errors.Wrap(err, "Failed to create archive")
	}
	defer f.Close()

	if err := targz.Archive(f, dir); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "Failed to write archive")
	}

	log.Info("Backed up photos", zap.String("dir", dir), zap.String("archive", out))
	return nil
}

func restorePhotos(in, dir string) error {
	f, err := os.Open(in)
	if err != nil {
		return errors.Wrap(err, "Failed to open archive")
	}
	defer f.Close()

	if err := targz.ExtractToDir(f, dir); err != nil {
		return errors.Wrap(err, "Failed to restore photos")
	}

	log.Info("Restored photos", zap.String("dir", dir), zap.String("archive", in))
	return nil
}
