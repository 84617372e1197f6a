package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/atotto/clipboard"
	"github.com/briandowns/spinner"
	"github.com/gabriel-vasile/mimetype"
	"github.com/kamilpajak/leafguard/internal/config"
	"github.com/kamilpajak/leafguard/internal/dashboard"
	"github.com/kamilpajak/leafguard/internal/playwright"
	"github.com/kamilpajak/leafguard/internal/predict"
	"github.com/kamilpajak/leafguard/internal/report"
	"github.com/kamilpajak/leafguard/internal/workflow"
	"github.com/kamilpajak/leafguard/pkg/logger"
	"github.com/kamilpajak/leafguard/pkg/models"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	verbose    bool
	jsonOutput bool
	copyRemedy bool
	pdfPath    string
	apiURL     string
	configPath string
	host       string
	port       int
)

var rootCmd = &cobra.Command{
	Use:   "leafguard <image>",
	Short: "Plant disease detection",
	Long:  `Sends a leaf photo to the LeafGuard prediction service and shows the detected disease with treatment advice.`,
	Args:  cobra.ExactArgs(1),
	RunE:  run,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web dashboard",
	Args:  cobra.NoArgs,
	RunE:  serve,
}

var installCmd = &cobra.Command{
	Use:   "install-browser",
	Short: "Install the headless browser used for PDF reports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return playwright.Install()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("leafguard %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Base URL of the prediction service")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logs")

	rootCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output result as JSON")
	rootCmd.Flags().BoolVar(&copyRemedy, "copy", false, "Copy the remedy text to the clipboard")
	rootCmd.Flags().StringVar(&pdfPath, "pdf", "", "Write a printable PDF report to this file")

	serveCmd.Flags().StringVar(&host, "host", "", "Interface to listen on")
	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if rootCmd.Execute() != nil {
		os.Exit(1)
	}
}

// loadConfig applies command-line overrides on top of config.Load.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("api-url") {
		cfg.APIURL = apiURL
	}
	if cmd.Flags().Changed("host") {
		cfg.Host = host
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = port
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, cfg.Validate()
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Lifecycle logs would clutter terminal output; only errors by default.
	level := "error"
	if verbose {
		level = cfg.LogLevel
	}
	log := logger.New(os.Stderr, level)

	img, err := loadImage(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := predict.NewClient(cfg.APIURL)
	p, err := analyze(ctx, client, img, os.Stderr, log)
	if err != nil {
		return err
	}

	if jsonOutput {
		if err := json.NewEncoder(os.Stdout).Encode(newResultJSON(p)); err != nil {
			return err
		}
	} else {
		printResult(os.Stderr, os.Stdout, p)
	}

	if copyRemedy {
		if err := clipboard.WriteAll(p.Remedy); err != nil {
			return fmt.Errorf("failed to copy remedy: %w", err)
		}
		fmt.Fprintln(os.Stderr, "Remedy copied to clipboard.")
	}

	if pdfPath != "" {
		if err := writePDF(pdfPath, p); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Report written to %s\n", pdfPath)
	}
	return nil
}

// loadImage reads path and detects its media type from content.
func loadImage(path string) (workflow.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return workflow.Image{}, fmt.Errorf("failed to read image: %w", err)
	}
	return workflow.Image{
		Name:      filepath.Base(path),
		MediaType: mimetype.Detect(data).String(),
		Data:      data,
	}, nil
}

// analyze runs one select-and-submit cycle through a workflow and returns
// the prediction, or the failure message as an error.
func analyze(ctx context.Context, sub workflow.Submitter, img workflow.Image, progress io.Writer, log *slog.Logger) (*models.Prediction, error) {
	wf := workflow.New(sub, log)
	if err := wf.Select(img); err != nil {
		return nil, err
	}

	fmt.Fprintf(progress, "Analyzing %s...\n", img.Name)
	spin := newSpinner(progress)
	if spin != nil {
		spin.Start()
	}

	wf.Analyze(ctx)
	wf.Wait()

	if spin != nil {
		spin.Stop()
	}

	st := wf.State()
	switch st.Phase {
	case workflow.PhaseSucceeded:
		return st.Result, nil
	case workflow.PhaseFailed:
		return nil, errors.New(st.Err)
	default:
		return nil, fmt.Errorf("analysis did not complete (state %s)", st.Phase)
	}
}

// newSpinner returns nil unless w is a terminal.
func newSpinner(w io.Writer) *spinner.Spinner {
	f, ok := w.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return nil
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(f))
	s.Suffix = " Analyzing image..."
	return s
}

func writePDF(path string, p *models.Prediction) error {
	page, err := report.HTML(p, time.Now())
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Rendering report with Playwright...\n")
	pdf, err := playwright.PrintHTML(page)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.New(os.Stderr, cfg.LogLevel)

	handler := dashboard.NewHandler(dashboard.Config{
		Submitter:        predict.NewClient(cfg.APIURL),
		Logger:           log,
		MaxUploadBytes:   int64(cfg.Dashboard.MaxUploadMB) << 20,
		UploadsPerMinute: cfg.Dashboard.UploadsPerMinute,
		SessionTTL:       cfg.Dashboard.SessionTTL,
	})
	defer handler.Close()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown on interrupt (Ctrl+C)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)

	go func() {
		<-quit
		fmt.Fprintln(os.Stderr, "\nShutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		handler.Close()
		if err := srv.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
		}
	}()

	fmt.Fprintf(os.Stderr, "Dashboard: http://%s (prediction service %s)\n", cfg.Addr(), cfg.APIURL)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
