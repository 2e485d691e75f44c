package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garyellow/courseai-go/internal/config"
	"github.com/garyellow/courseai-go/internal/snapshot"
)

var errNoR2 = errors.New("R2 snapshot storage is not configured (set COURSEAI_R2_ENDPOINT, COURSEAI_R2_ACCESS_KEY_ID, COURSEAI_R2_SECRET_ACCESS_KEY and COURSEAI_R2_BUCKET_NAME)")

func newSnapshotCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Move the SQLite warehouse to and from R2",
	}
	cmd.AddCommand(newSnapshotPullCommand(root))
	cmd.AddCommand(newSnapshotPushCommand(root))
	return cmd
}

func newSnapshotPullCommand(root *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Download the warehouse snapshot",
		Long: `Download the warehouse snapshot into the configured warehouse path.

An existing local file is kept unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := root.openBackend(cmd, true)
			if err != nil {
				return err
			}
			defer closeBackend(cmd, b)

			mgr := b.Snapshots()
			if mgr == nil {
				return errNoR2
			}
			path := b.Config().WarehousePath

			ctx, cancel := contextWithTimeout(cmd, config.SnapshotDownload)
			defer cancel()

			if force {
				err = mgr.Pull(ctx, path)
			} else {
				var downloaded bool
				downloaded, err = mgr.EnsureLocal(ctx, path)
				if err == nil && !downloaded {
					fmt.Fprintf(cmd.OutOrStdout(), "Warehouse already present at %s (use --force to replace it)\n", path)
					return nil
				}
			}
			if errors.Is(err, snapshot.ErrNotFound) {
				return fmt.Errorf("no snapshot at %s", mgr.Key())
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %s to %s\n", mgr.Key(), path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing local warehouse")
	return cmd
}

func newSnapshotPushCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Upload the local warehouse as the new snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := root.openBackend(cmd, true)
			if err != nil {
				return err
			}
			defer closeBackend(cmd, b)

			mgr := b.Snapshots()
			if mgr == nil {
				return errNoR2
			}

			ctx, cancel := contextWithTimeout(cmd, config.SnapshotDownload)
			defer cancel()

			etag, err := mgr.Push(ctx, b.Config().WarehousePath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s (etag %s)\n", mgr.Key(), etag)
			return nil
		},
	}
}
