// Package repl is the plain line-mode front end: one task per line.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"tender-crew/agent"
	"tender-crew/pipeline"
)

// Lister lists knowledge base files.
type Lister interface {
	List() ([]string, error)
}

type REPL struct {
	pipeline *pipeline.Pipeline
	kb       Lister
	scanner  *bufio.Scanner
	out      io.Writer
	locale   agent.Locale

	fileName string
	fileData []byte

	// openURL is replaced in tests.
	openURL func(url string) error
}

func NewREPL(p *pipeline.Pipeline, kb Lister, locale agent.Locale) *REPL {
	return newREPL(p, kb, locale, os.Stdin, os.Stdout)
}

func newREPL(p *pipeline.Pipeline, kb Lister, locale agent.Locale, in io.Reader, out io.Writer) *REPL {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	return &REPL{
		pipeline: p,
		kb:       kb,
		scanner:  scanner,
		out:      out,
		locale:   locale,
		openURL:  openInBrowser,
	}
}

func (r *REPL) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

func (r *REPL) println(args ...any) {
	fmt.Fprintln(r.out, args...)
}

func (r *REPL) Start(ctx context.Context) {
	r.println("📑 Tender Crew")
	r.println("A team of AI agents analyses your public procurement tasks.")
	r.println()
	r.showHelp()

	for {
		r.printf("📝 Task: ")
		if !r.scanner.Scan() {
			break
		}

		input := strings.TrimSpace(r.scanner.Text())
		if input == "" {
			continue
		}

		cmd, arg, _ := strings.Cut(input, " ")
		switch strings.ToLower(cmd) {
		case "help":
			r.showHelp()
		case "quit", "exit", "q":
			r.println("👋 Goodbye!")
			return
		case ":file":
			r.attach(strings.TrimSpace(arg))
		case ":kb":
			r.listKnowledgeBase()
		default:
			r.handleTask(ctx, input)
		}

		if ctx.Err() != nil {
			return
		}
	}
}

func (r *REPL) attach(path string) {
	if path == "" {
		r.fileName, r.fileData = "", nil
		r.println("📎 Attachment cleared.")
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		r.printf("❌ Could not read file: %v\n", err)
		return
	}
	r.fileName, r.fileData = filepath.Base(path), data
	r.printf("📎 %s will be sent with the next task (%d bytes).\n", r.fileName, len(data))
}

func (r *REPL) listKnowledgeBase() {
	if r.kb == nil {
		r.println("📚 No knowledge base configured.")
		return
	}
	names, err := r.kb.List()
	if err != nil {
		r.printf("❌ Error listing knowledge base: %v\n", err)
		return
	}
	if len(names) == 0 {
		r.println("📚 The knowledge base is empty.")
		return
	}
	r.printf("📚 %d file(s) in the knowledge base:\n", len(names))
	for _, name := range names {
		r.printf("   • %s\n", truncateString(name, 80))
	}
}

func (r *REPL) handleTask(ctx context.Context, prompt string) {
	crew := r.pipeline.Crew()
	crew.Manager.Progress = func(u agent.ProgressUpdate) {
		switch u.Status {
		case agent.StatusStarted:
			r.printf("⏳ %s is working...\n", u.Worker)
		case agent.StatusCompleted:
			r.printf("✅ %s finished\n", u.Worker)
		case agent.StatusError:
			r.printf("❌ %s failed\n", u.Worker)
		}
	}
	defer func() { crew.Manager.Progress = nil }()

	outcome, err := r.pipeline.Submit(ctx, pipeline.Submission{
		Prompt:   prompt,
		FileName: r.fileName,
		FileData: r.fileData,
	})
	r.fileName, r.fileData = "", nil
	if err != nil {
		r.printf("❌ Error: %v\n", err)
		return
	}

	r.println()
	r.println("💡 Result:")
	r.println("─────────────────────────────────────────────────────────────")
	r.println(outcome.Result.Text)
	r.println("─────────────────────────────────────────────────────────────")
	r.printf("⏱  %s\n", outcome.Duration.Round(time.Millisecond))

	links := extractLinks(outcome.Result.Text)
	if len(links) == 0 {
		r.println()
		return
	}

	r.println("🔗 Links found by the internet search:")
	for i, link := range links {
		r.printf("%d. %s\n", i+1, link)
	}
	r.printf("\n📖 Enter link number to open in browser (or press Enter to continue): ")
	if r.scanner.Scan() {
		input := strings.TrimSpace(r.scanner.Text())
		if input != "" {
			if num, err := strconv.Atoi(input); err == nil && num > 0 && num <= len(links) {
				if err := r.openURL(links[num-1]); err != nil {
					r.printf("❌ Failed to open browser: %v\n", err)
					r.printf("🔗 Please open this URL manually: %s\n", links[num-1])
				} else {
					r.printf("🌐 Opening %s in browser...\n", links[num-1])
				}
			} else {
				r.println("❌ Invalid link number.")
			}
		}
	}
	r.println()
}

func (r *REPL) showHelp() {
	r.println("Commands:")
	r.println("  <your task>   - Send a task to the crew")
	r.println("  :file <path>  - Attach a file to the next task (no path clears it)")
	r.println("  :kb           - List knowledge base files")
	r.println("  help          - Show this help message")
	r.println("  quit          - Exit")
	r.println()
	r.println("💡 Examples:")
	for _, ex := range examples(r.locale) {
		r.printf("  %s\n", ex)
	}
	r.println()
}

func examples(locale agent.Locale) []string {
	if locale.Code == agent.Romanian.Code {
		return []string{
			"Analizați caietul de sarcini și identificați riscurile.",
			"Pregătiți o ofertă tehnică pentru reabilitarea unui drum județean.",
			"Care sunt pragurile valorice pentru achiziții directe?",
		}
	}
	return []string{
		"Review the tender book and list the risks.",
		"Draft a technical offer for a county road rehabilitation.",
		"What are the thresholds for direct awards?",
	}
}

var linkPattern = regexp.MustCompile(`(?m)^Link: (\S+)`)

// extractLinks returns the distinct search result links in text, in order.
func extractLinks(text string) []string {
	var links []string
	seen := make(map[string]bool)
	for _, m := range linkPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			links = append(links, m[1])
		}
	}
	return links
}

func openInBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start"}
	case "darwin":
		cmd = "open"
	default: // "linux", "freebsd", "openbsd", "netbsd"
		cmd = "xdg-open"
	}
	args = append(args, url)

	return exec.Command(cmd, args...).Start()
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
