package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize/english"
	"github.com/kozaktomas/face-attendance/internal/gallery"
	"github.com/kozaktomas/face-attendance/internal/recognizer"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Check that every reference photo contains a detectable face",
	Long: `Encode every photo in the images directory the same way "serve" does and
report which students were enrolled and which photos were skipped.

Examples:
  # Check the configured images directory
  face-attendance enroll

  # Check another directory
  face-attendance enroll --images ./class-7b`,
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("images", "", "Reference photo directory (defaults to IMAGES_DIR)")
}

// enrollResult lists encoded labels and skipped files with their reason.
type enrollResult struct {
	Encoded []string
	Skipped map[string]string
	Order   []string
}

// enrollDir encodes every reference photo in dir, calling progress after each file.
func enrollDir(ctx context.Context, dir string, rec recognizer.Recognizer, progress func()) (*enrollResult, error) {
	files, err := gallery.Files(dir)
	if err != nil {
		return nil, fmt.Errorf("reading images directory: %w", err)
	}

	res := &enrollResult{Skipped: make(map[string]string)}
	for _, path := range files {
		name := filepath.Base(path)
		ref, err := gallery.EncodeFile(ctx, path, rec)
		switch {
		case errors.Is(err, gallery.ErrDecode):
			res.Skipped[name] = "not an image"
			res.Order = append(res.Order, name)
		case errors.Is(err, gallery.ErrNoFace):
			res.Skipped[name] = "no face detected"
			res.Order = append(res.Order, name)
		case err != nil:
			res.Skipped[name] = err.Error()
			res.Order = append(res.Order, name)
		default:
			res.Encoded = append(res.Encoded, ref.Label)
		}
		if progress != nil {
			progress()
		}
	}
	return res, nil
}

func runEnroll(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dir := stringFlag(cmd, "images", cfg.Images.Dir)

	rec, err := recognizer.New(cfg)
	if err != nil {
		return fmt.Errorf("loading recognizer: %w", err)
	}
	defer rec.Close()

	files, err := gallery.Files(dir)
	if err != nil {
		return fmt.Errorf("reading images directory: %w", err)
	}

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("Encoding faces"),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	res, err := enrollDir(cmd.Context(), dir, rec, func() { _ = bar.Add(1) })
	if err != nil {
		return err
	}
	_ = bar.Finish()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nEnrolled %s\n", english.Plural(len(res.Encoded), "student", ""))
	for _, label := range res.Encoded {
		fmt.Fprintf(out, "  %s\n", label)
	}
	if len(res.Order) > 0 {
		fmt.Fprintf(out, "Skipped %s\n", english.Plural(len(res.Order), "file", ""))
		for _, name := range res.Order {
			fmt.Fprintf(out, "  %s: %s\n", name, res.Skipped[name])
		}
	}
	return nil
}
