package services

import (
	"fmt"
	"html"
	"strings"

	"github.com/rocjay1/ledger-entry/internal/models"
)

// ImportReportSubject is the subject line for an import report.
func ImportReportSubject(r models.ImportReport) string {
	if r.Failed > 0 {
		return fmt.Sprintf("Ledger import: %d row(s) failed", r.Failed)
	}
	return "Ledger import completed"
}

// RenderErrorSection renders the failed-row list, including a notice when it was capped.
func RenderErrorSection(r models.ImportReport) string {
	if len(r.Errors) == 0 && r.TotalErrors == 0 {
		return ""
	}

	var items strings.Builder
	for _, e := range r.Errors {
		fmt.Fprintf(&items, "<li>Row %d: %s</li>", e.Row, html.EscapeString(e.Error))
	}

	truncated := ""
	if r.Truncated {
		truncated = fmt.Sprintf(`<p style="margin-bottom: 0;">Showing %d of %d errors.</p>`, len(r.Errors), r.TotalErrors)
	}

	return fmt.Sprintf(`
		<div style="background-color: #fff4f4; border-left: 5px solid #d13438; padding: 15px; margin-bottom: 20px;">
			<h3 style="color: #d13438; margin-top: 0; font-size: 18px;">Some rows were not imported</h3>
			<ul style="margin-bottom: 0; padding-left: 20px;">
				%s
			</ul>
			%s
		</div>
	`, items.String(), truncated)
}

// RenderImportReport renders the full HTML body for an import report e-mail.
func RenderImportReport(r models.ImportReport) string {
	name := r.Filename
	if name == "" {
		name = "the uploaded file"
	}
	return fmt.Sprintf(`
		<html>
		<body style="font-family: 'Segoe UI', sans-serif; color: #333; line-height: 1.6; background-color: #f4f4f4; margin: 0; padding: 20px;">
			<div style="max-width: 600px; margin: 0 auto; background: white; border-radius: 8px; overflow: hidden; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">
				<div style="background-color: #0078d4; padding: 20px; text-align: center; color: white;">
					<h2 style="margin: 0;">Import Report</h2>
				</div>
				<div style="padding: 20px;">
					<p>Results for %s:</p>
					<table style="border-collapse: collapse; margin-bottom: 20px;">
						<tr><td style="padding-right: 20px;">Created</td><td>%d</td></tr>
						<tr><td style="padding-right: 20px;">Skipped</td><td>%d</td></tr>
						<tr><td style="padding-right: 20px;">Failed</td><td>%d</td></tr>
					</table>
					%s
				</div>
			</div>
		</body>
		</html>
	`, html.EscapeString(name), r.Created, r.Skipped, r.Failed, RenderErrorSection(r))
}

// RenderImportReportText is the plain-text alternative of RenderImportReport.
func RenderImportReportText(r models.ImportReport) string {
	var b strings.Builder
	name := r.Filename
	if name == "" {
		name = "the uploaded file"
	}
	fmt.Fprintf(&b, "Results for %s: %d created, %d skipped, %d failed.\n", name, r.Created, r.Skipped, r.Failed)
	for _, e := range r.Errors {
		fmt.Fprintf(&b, "Row %d: %s\n", e.Row, e.Error)
	}
	if r.Truncated {
		fmt.Fprintf(&b, "Showing %d of %d errors.\n", len(r.Errors), r.TotalErrors)
	}
	return b.String()
}
