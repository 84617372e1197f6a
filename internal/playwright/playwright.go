// Package playwright prints HTML reports to PDF with a headless browser.
package playwright

import (
	"fmt"

	"github.com/kamilpajak/leafguard/internal/server"
	"github.com/playwright-community/playwright-go"
)

const reportFile = "report.html"

// PrintPDF opens url in a headless browser and prints the page as A4 PDF
func PrintPDF(url string) ([]byte, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}
	defer pw.Stop() //nolint:errcheck // best-effort cleanup

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}
	defer browser.Close() //nolint:errcheck // best-effort cleanup

	page, err := browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("could not create page: %w", err)
	}

	if _, err = page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	}); err != nil {
		return nil, fmt.Errorf("could not navigate: %w", err)
	}

	pdf, err := page.PDF(playwright.PagePdfOptions{
		Format:          playwright.String("A4"),
		PrintBackground: playwright.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("could not print page: %w", err)
	}
	return pdf, nil
}

// PrintHTML serves htmlContent locally and prints it to PDF.
func PrintHTML(htmlContent []byte) ([]byte, error) {
	if !IsAvailable() {
		return nil, fmt.Errorf("playwright not installed. Run: go run github.com/playwright-community/playwright-go/cmd/playwright install chromium")
	}

	srv, err := server.Start(htmlContent, reportFile)
	if err != nil {
		return nil, fmt.Errorf("failed to start server: %w", err)
	}
	defer srv.Stop()

	pdf, err := PrintPDF(srv.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to print report: %w", err)
	}
	return pdf, nil
}

// IsAvailable checks if playwright browsers are installed
func IsAvailable() bool {
	pw, err := playwright.Run()
	if err != nil {
		return false
	}
	_ = pw.Stop()
	return true
}

// Install installs playwright browsers
func Install() error {
	return playwright.Install()
}
