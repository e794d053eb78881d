package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/camera"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/event"
	"github.com/kozaktomas/face-attendance/internal/gallery"
	"github.com/kozaktomas/face-attendance/internal/matcher"
	"github.com/kozaktomas/face-attendance/internal/pipeline"
	"github.com/kozaktomas/face-attendance/internal/recognizer"
	"github.com/kozaktomas/face-attendance/internal/roster"
	"github.com/kozaktomas/face-attendance/internal/web"
	"github.com/kozaktomas/face-attendance/internal/web/handlers"
	"github.com/spf13/cobra"
)

var log = event.Log

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attendance session and the web UI",
	Long: `Load the roster and the reference photos, open the camera and start
marking attendance. The web UI shows the live feed, lets the operator stop the
session and download the attendance report.

Ctrl+C stops the capture loop, releases the camera and shuts the server down.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().Bool("no-camera", false, "Serve the UI without opening the camera")
}

// prepareSession loads the roster and encodes the reference photos.
func prepareSession(ctx context.Context, cfg *config.Config, rec recognizer.Recognizer) (*roster.Roster, *attendance.Session, error) {
	r, err := roster.Load(cfg.Roster.Path, cfg.Roster.Sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("loading roster: %w", err)
	}

	session := attendance.NewSession()
	session.SetGallery(gallery.Load(ctx, cfg.Images.Dir, rec, session))
	return r, session, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Web.Port = intFlag(cmd, "port", cfg.Web.Port)
	cfg.Web.Host = stringFlag(cmd, "host", cfg.Web.Host)
	noCamera := mustGetBool(cmd, "no-camera")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec, err := recognizer.New(cfg)
	if err != nil {
		return fmt.Errorf("loading recognizer: %w", err)
	}
	defer rec.Close()

	r, session, err := prepareSession(ctx, cfg, rec)
	if err != nil {
		return err
	}

	frames := handlers.NewFrameBroadcaster()
	server := web.NewServer(cfg, session, frames)

	var wg sync.WaitGroup
	if noCamera {
		session.Notify(event.LevelInfo, "Camera disabled, no attendance will be taken.")
		session.RequestStop()
	} else {
		m, err := matcher.New(rec, r, session, matcher.Options{
			Model:      cfg.Recognizer.Detector,
			Downsample: cfg.Match.Downsample,
			Index:      cfg.Match.Index,
		})
		if err != nil {
			return fmt.Errorf("creating matcher: %w", err)
		}

		loop := &pipeline.Loop{
			Open: func() (pipeline.Source, error) {
				cam, err := camera.Open(cfg.Camera.Device)
				if err != nil {
					return nil, err
				}
				return cam, nil
			},
			Processor: m,
			Session:   session,
			Sink:      frames,
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := loop.Run(ctx); err != nil {
				log.Errorf("capture loop: %v", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("Shutting down...")
		session.RequestStop()
		wg.Wait()

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Errorf("Error during shutdown: %v", err)
		}
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Starting Face Attendance on http://%s\n", cfg.Web.Addr())
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	wg.Wait()
	return nil
}
