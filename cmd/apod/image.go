package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"apod-feed/internal/usecase/feed"

	"github.com/spf13/cobra"
)

// errDestinationExists is returned by --save when the target exists and --force is not set.
var errDestinationExists = errors.New("destination already exists")

func newImageCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image <YYYY-MM-DD>",
		Short: "Download the full-size image of one day into the cache",
		Long: `Download the full-size image of one day unless it is already cached,
then print its local path. Some days publish a video or an applet instead of an
image; for those the page URL is printed.

With --save the cached image is also copied to PATH. When PATH is a directory
the image keeps its file name. An existing file is only replaced with --force.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: c.runImage,
	}
	cmd.Flags().String("save", "", "copy the image to `PATH`")
	cmd.Flags().Bool("force", false, "overwrite an existing file at the --save path")
	return cmd
}

func (c *cli) runImage(cmd *cobra.Command, args []string) error {
	save, _ := cmd.Flags().GetString("save")
	force, _ := cmd.Flags().GetBool("force")
	if force && save == "" {
		return usagef("--force requires --save")
	}

	entry, err := c.entryOn(cmd, args[0])
	if err != nil {
		return err
	}

	client, err := c.client(cmd)
	if err != nil {
		return err
	}

	path, err := client.EnsureImageCached(cmd.Context(), entry)
	if err != nil {
		var notFound *feed.ImageNotFoundError
		if errors.As(err, &notFound) {
			c.printer(cmd).Warning("%v", notFound)
			return nil
		}
		return err
	}

	if save == "" {
		c.printer(cmd).Success("%s", path)
		return nil
	}

	dest, err := copyImage(path, save, force)
	if err != nil {
		return err
	}
	c.printer(cmd).Success("saved %s", dest)
	return nil
}

// copyImage copies src to dest, or into dest when dest is a directory, and returns
// the path written.
func copyImage(src, dest string, force bool) (string, error) {
	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		dest = filepath.Join(dest, filepath.Base(src))
	}

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open cached image: %w", err)
	}
	defer func() {
		_ = in.Close()
	}()

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	out, err := os.OpenFile(dest, flags, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%w: %s (use --force to overwrite)", errDestinationExists, dest)
		}
		return "", fmt.Errorf("save image: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return "", fmt.Errorf("save image: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	return dest, nil
}
