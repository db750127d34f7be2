package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// every command prints through these helpers
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a formatted command header
func PrintHeader(title string, scanDate time.Time) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	if !scanDate.IsZero() {
		PrintSeparator()
		fmt.Printf("  Scan date : %s\n", contracts.FormatDate(scanDate))
	}
	PrintDoubleSeparator()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message to stderr
func PrintError(message string) {
	fmt.Fprintf(os.Stderr, "❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// PrintJSON prints v as indented JSON
func PrintJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintSummary prints a run summary; failures are always listed
func PrintSummary(s *contracts.RunSummary) {
	fmt.Println()
	PrintKeyValue("Run ID", s.RunID, 12)
	PrintKeyValue("Scan date", contracts.FormatDate(s.ScanDate), 12)
	PrintKeyValue("Elapsed", s.Elapsed.Round(time.Millisecond).String(), 12)
	PrintKeyValue("Scanned", fmt.Sprintf("%d/%d", s.Scanned, s.Instruments), 12)
	for _, name := range s.Strategies {
		PrintKeyValue(name, strconv.Itoa(s.Counts[name]), 12)
	}

	if len(s.Signals) > 0 {
		fmt.Println()
		PrintSignals(s.Signals)
	}

	printIssues("Sync failures", s.SyncFailures)
	printIssues("Failed", s.Failed)
	printIssues("Skipped", s.Skipped)
	fmt.Println()

	if s.HasFailures() {
		PrintWarning(fmt.Sprintf("%d sync failures, %d evaluation failures (see above)", len(s.SyncFailures), len(s.Failed)))
	} else {
		PrintSuccess(fmt.Sprintf("%d signals", s.TotalSignals()))
	}
}

// PrintSignals prints signals as a table
func PrintSignals(signals []contracts.Signal) {
	widths := []int{10, 8, 18, 10, 40}
	PrintTableHeader([]string{"DATE", "CODE", "STRATEGY", "MAGNITUDE", "DESCRIPTION"}, widths)
	for _, sig := range signals {
		PrintTableRow([]string{
			contracts.FormatDate(sig.ScanDate),
			sig.InstrumentCode,
			sig.StrategyName,
			strconv.FormatFloat(sig.Payload.Magnitude, 'f', 2, 64),
			sig.Payload.Description,
		}, widths)
	}
}

// printIssues lists skipped or failed instruments; long lists are collapsed
func printIssues(title string, issues []contracts.InstrumentIssue) {
	if len(issues) == 0 {
		return
	}
	const shown = 20

	fmt.Printf("\n%s (%d):\n", title, len(issues))
	for i, issue := range issues {
		if i == shown {
			fmt.Printf("   ... and %d more\n", len(issues)-shown)
			break
		}
		if issue.Strategy != "" {
			fmt.Printf("   • %s [%s] %s\n", issue.Code, issue.Strategy, issue.Reason)
		} else {
			fmt.Printf("   • %s %s\n", issue.Code, issue.Reason)
		}
	}
}
