package terminal

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"ui_autoid/application/watcher"
	"ui_autoid/domain/interfaces"
	"ui_autoid/infrastructure/browser"
	"ui_autoid/infrastructure/config"
	"ui_autoid/infrastructure/dom"
	"ui_autoid/infrastructure/storage"

	"github.com/sirupsen/logrus"
)

// BrowserFactory opens the browser on first use
type BrowserFactory func() (interfaces.ObservedBrowser, error)

type TerminalInterface struct {
	cfg        *config.Config
	logger     *logrus.Logger
	watcher    *watcher.Watcher
	log        interfaces.AssignmentLog
	newBrowser BrowserFactory
	browser    interfaces.ObservedBrowser
	sub        interfaces.Subscription
	reader     *bufio.Reader
	out        io.Writer
}

func NewTerminalInterface() (*TerminalInterface, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if !cfg.EnvFileLoaded {
		fmt.Println("Warning: .env file not found, using environment variables")
	}

	logger := cfg.NewLogger()

	assignmentLog, err := storage.NewAssignmentLog(cfg.StateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize assignment log: %w", err)
	}

	factory := func() (interfaces.ObservedBrowser, error) {
		if cfg.Driver == config.DriverSelenium {
			return browser.NewSeleniumBrowser(cfg, logger)
		}
		return browser.NewPlaywrightBrowser(cfg, logger)
	}

	return New(cfg, logger, assignmentLog, factory, os.Stdin, os.Stdout), nil
}

// New - creates a terminal over explicit dependencies
func New(cfg *config.Config, logger *logrus.Logger, log interfaces.AssignmentLog, factory BrowserFactory, in io.Reader, out io.Writer) *TerminalInterface {
	return &TerminalInterface{
		cfg:        cfg,
		logger:     logger,
		watcher:    watcher.New(logger, watcher.WithAssignmentLog(log)),
		log:        log,
		newBrowser: factory,
		reader:     bufio.NewReader(in),
		out:        out,
	}
}

func (t *TerminalInterface) Run() error {
	fmt.Fprintln(t.out, "UI Auto ID")
	fmt.Fprintln(t.out, "==========")
	fmt.Fprintln(t.out, "Type 'help' for commands, or 'quit' to exit")
	fmt.Fprintln(t.out)

	ctx := context.Background()

	if t.cfg.StartURL != "" {
		if err := t.open(ctx, t.cfg.StartURL); err != nil {
			fmt.Fprintf(t.out, "Failed to open %s: %v\n", t.cfg.StartURL, err)
		}
	}

	for {
		fmt.Fprint(t.out, "> ")
		input, err := t.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		fields := strings.Fields(input)
		if len(fields) == 0 {
			continue
		}

		cmd, args := strings.ToLower(fields[0]), fields[1:]
		switch cmd {
		case "quit", "exit", "q":
			fmt.Fprintln(t.out, "Goodbye!")
			return nil

		case "help":
			t.help()

		case "open":
			if len(args) != 1 {
				fmt.Fprintln(t.out, "Usage: open <url>")
				continue
			}
			if err := t.open(ctx, args[0]); err != nil {
				fmt.Fprintf(t.out, "Failed to open %s: %v\n", args[0], err)
			}

		case "ids":
			if err := t.listIdentifiers(ctx, args...); err != nil {
				fmt.Fprintf(t.out, "Failed to list identifiers: %v\n", err)
			}

		case "annotate":
			if len(args) < 1 || len(args) > 2 {
				fmt.Fprintln(t.out, "Usage: annotate <in.html> [out.html]")
				continue
			}
			if err := t.annotate(args...); err != nil {
				fmt.Fprintf(t.out, "Failed to annotate: %v\n", err)
			}

		case "report":
			if err := t.report(); err != nil {
				fmt.Fprintf(t.out, "Failed to read assignment log: %v\n", err)
			}

		case "clear":
			if err := t.log.Clear(); err != nil {
				fmt.Fprintf(t.out, "Failed to clear assignment log: %v\n", err)
				continue
			}
			fmt.Fprintln(t.out, "Assignment log cleared")

		default:
			fmt.Fprintf(t.out, "Unknown command: %s\n", cmd)
		}
	}
}

func (t *TerminalInterface) help() {
	fmt.Fprintln(t.out, "  open <url>                  open a page and label its elements")
	fmt.Fprintln(t.out, "  ids [file]                  list generated identifiers on the page or in a file")
	fmt.Fprintln(t.out, "  annotate <in> [out]         label a static HTML file")
	fmt.Fprintln(t.out, "  report                      show logged assignments")
	fmt.Fprintln(t.out, "  clear                       clear the assignment log")
	fmt.Fprintln(t.out, "  quit                        exit")
}

// open - starts the browser on first use and navigates
func (t *TerminalInterface) open(ctx context.Context, url string) error {
	if t.browser == nil {
		b, err := t.newBrowser()
		if err != nil {
			return fmt.Errorf("failed to initialize browser: %w", err)
		}
		sub, err := t.watcher.Attach(b)
		if err != nil {
			b.Close()
			return err
		}
		t.browser = b
		t.sub = sub
	}

	if err := t.browser.Navigate(ctx, url); err != nil {
		return err
	}
	fmt.Fprintf(t.out, "Watching %s\n", url)
	return nil
}

func (t *TerminalInterface) listIdentifiers(ctx context.Context, files ...string) error {
	var ids []string
	switch {
	case len(files) > 0:
		for _, name := range files {
			found, err := fileIdentifiers(name)
			if err != nil {
				return err
			}
			ids = append(ids, found...)
		}
	case t.browser == nil:
		fmt.Fprintln(t.out, "No page open")
		return nil
	default:
		found, err := t.browser.Identifiers(ctx)
		if err != nil {
			return err
		}
		ids = found
	}

	if len(ids) == 0 {
		fmt.Fprintln(t.out, "No generated identifiers yet")
		return nil
	}
	for _, id := range ids {
		fmt.Fprintf(t.out, "  %s\n", id)
	}
	return nil
}

func fileIdentifiers(name string) ([]string, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := dom.Parse(f)
	if err != nil {
		return nil, err
	}
	return doc.Identifiers()
}

// annotate - labels in and writes to out, or to in.autoid.html by default
func (t *TerminalInterface) annotate(paths ...string) error {
	in := paths[0]
	out := strings.TrimSuffix(in, filepath.Ext(in)) + ".autoid" + filepath.Ext(in)
	if len(paths) == 2 {
		out = paths[1]
	}

	data, err := os.ReadFile(in)
	if err != nil {
		return err
	}

	abs, err := filepath.Abs(in)
	if err != nil {
		abs = in
	}
	var rendered bytes.Buffer
	assignments, err := Annotate(t.watcher, bytes.NewReader(data), &rendered, "file://"+filepath.ToSlash(abs))
	if err != nil {
		return err
	}
	if err := replaceFile(out, rendered.Bytes()); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}

	fmt.Fprintf(t.out, "Labeled %d elements, written to %s\n", len(assignments), out)
	return nil
}

func (t *TerminalInterface) report() error {
	assignments, err := t.log.Load()
	if err != nil {
		return err
	}
	if len(assignments) == 0 {
		fmt.Fprintln(t.out, "No assignments logged")
		return nil
	}

	for _, a := range assignments {
		marker := ""
		if a.Fallback {
			marker = " (structural)"
		}
		fmt.Fprintf(t.out, "%s  %-8s %s%s  %s\n", a.AssignedAt.Format("2006-01-02 15:04:05"), a.Tag, a.Identifier, marker, a.URL)
	}
	fmt.Fprintf(t.out, "%d assignments, %d in this session\n", len(assignments), t.watcher.Labeled())
	return nil
}

func (t *TerminalInterface) Close() error {
	if t.sub != nil {
		t.sub.Stop()
		t.sub = nil
	}
	if t.browser != nil {
		err := t.browser.Close()
		t.browser = nil
		return err
	}
	return nil
}

// replaceFile writes data next to path and renames it into place
func replaceFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
