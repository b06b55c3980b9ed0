package rendering

import (
	"context"
	"time"

	cdppage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/Riolite55/performance-evaluation/internal/types"
)

// DefaultPrintTimeout bounds one page print
const DefaultPrintTimeout = 30 * time.Second

// Printer converts a complete HTML page into a PDF document
type Printer interface {
	PrintPDF(ctx context.Context, page []byte) ([]byte, error)
}

// ChromePrinter prints pages with a headless Chrome started for each call.
// Requires Chrome/Chromium to be installed on the system.
type ChromePrinter struct {
	ExecPath string        // browser binary; empty lets chromedp search the usual locations
	Timeout  time.Duration // zero uses DefaultPrintTimeout
}

// PrintPDF loads page into a blank tab and prints it on A4 with backgrounds
func (p ChromePrinter) PrintPDF(ctx context.Context, page []byte) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if p.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(p.ExecPath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultPrintTimeout
	}
	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := cdppage.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return cdppage.SetDocumentContent(tree.Frame.ID, string(page)).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := cdppage.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		return nil, &PrintError{Message: "failed to print PDF", Cause: err}
	}
	return pdf, nil
}

// Print renders doc as an HTML page around md and prints it with p
func Print(ctx context.Context, p Printer, doc *types.Document, md string) ([]byte, error) {
	if p == nil {
		return nil, &RenderError{Message: "pdf output needs a printer"}
	}
	page, err := Encode(doc, md, FormatHTML)
	if err != nil {
		return nil, err
	}
	pdf, err := p.PrintPDF(ctx, page)
	if err != nil {
		return nil, err
	}
	return pdf, nil
}

// PrinterFunc adapts a function to the Printer interface
type PrinterFunc func(ctx context.Context, page []byte) ([]byte, error)

// PrintPDF calls f
func (f PrinterFunc) PrintPDF(ctx context.Context, page []byte) ([]byte, error) {
	return f(ctx, page)
}
