// Command overtype opens a PDF, applies masked text replacements from the
// command line or a JavaScript batch, and writes the edited document back
// out, optionally with an audit report. Replacements cover the original
// glyphs with opaque rectangles and lay editable text over them; nothing
// in the original content stream is rewritten.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"overtype/observability"
	"overtype/report"
	"overtype/store"
	"overtype/text"
	"overtype/viewer"
)

type options struct {
	pdfPath    string
	outPath    string
	password   string
	replaces   []string
	scriptPath string
	console    bool
	reportPath string
	ocrDir     string
	ocrDPI     int
	ocrLangs   string
	verbose    bool
}

type listFlag []string

func (f *listFlag) String() string { return strings.Join(*f, ", ") }

func (f *listFlag) Set(v string) error {
	*f = append(*f, v)
	return nil
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "overtype: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "overtype: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	var replaces listFlag
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: overtype [flags] <pdf>\n")
		flag.PrintDefaults()
	}
	out := flag.String("out", "", "Write the edited document here instead of overwriting the input")
	password := flag.String("password", "", "Password for encrypted input")
	flag.Var(&replaces, "replace", "Replace a phrase, as old=new (repeatable)")
	script := flag.String("script", "", "Run a JavaScript batch against the document")
	console := flag.Bool("console", false, "Open an interactive JavaScript console")
	reportPath := flag.String("report", "", "Export a replacement report PDF to this path")
	ocrDir := flag.String("ocr-dir", "", "Directory of rendered page images (page-N.png) for scanned input")
	ocrDPI := flag.Int("ocr-dpi", 0, "Resolution the page images were rendered at")
	ocrLangs := flag.String("ocr-lang", "eng", "Recognition languages, joined with +")
	verbose := flag.Bool("verbose", false, "Log debug detail to stderr")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return options{}, fmt.Errorf("missing pdf path")
	}
	opts.pdfPath = flag.Arg(0)
	opts.outPath = *out
	opts.password = *password
	opts.replaces = replaces
	opts.scriptPath = *script
	opts.console = *console
	opts.reportPath = *reportPath
	opts.ocrDir = *ocrDir
	opts.ocrDPI = *ocrDPI
	opts.ocrLangs = *ocrLangs
	opts.verbose = *verbose
	return opts, nil
}

func run(opts options) error {
	var log observability.Logger = observability.NopLogger{}
	if opts.verbose {
		log = observability.NewTextLogger(os.Stderr)
	}

	ocrTexts := map[int]*text.PageText{}
	ctrl, err := openController(opts, log, ocrTexts)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	doc := ctrl.Document()
	fmt.Printf("%s: %d page(s), %d annotation(s)\n",
		filepath.Base(opts.pdfPath), doc.PageCount(), doc.AnnotationCount())

	if opts.ocrDir != "" {
		if err := recognizePages(ctrl, opts, ocrTexts, log); err != nil {
			return err
		}
	}

	for _, pair := range opts.replaces {
		phrase, repl, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("bad -replace %q, want old=new", pair)
		}
		n := batchReplace(ctrl, phrase, repl)
		fmt.Printf("replaced %d occurrence(s) of %q\n", n, phrase)
	}

	if opts.scriptPath != "" {
		if err := runScript(ctrl, opts.scriptPath); err != nil {
			return err
		}
	}
	if opts.console {
		if err := runConsole(ctrl); err != nil {
			return err
		}
	}

	if ed := ctrl.Editor(); ed != nil {
		ed.Commit()
	}
	switch {
	case opts.outPath != "":
		if err := ctrl.SaveAs(opts.outPath); err != nil {
			return err
		}
		fmt.Printf("saved %s\n", opts.outPath)
	case ctrl.Document().Dirty:
		if err := ctrl.Save(); err != nil {
			return err
		}
		fmt.Printf("saved %s\n", opts.pdfPath)
	}

	if opts.reportPath != "" {
		if err := report.WriteFile(ctrl.Document(), ctrl.Journal(), opts.reportPath); err != nil {
			return err
		}
		fmt.Printf("report written to %s\n", opts.reportPath)
	}
	return nil
}

// openController builds the controller stack and opens the input,
// prompting once for a password when the file turns out to be encrypted
// and none was given.
func openController(opts options, log observability.Logger, ocrTexts map[int]*text.PageText) (*viewer.Controller, error) {
	build := func(password string) *viewer.Controller {
		sopts := []store.Option{store.WithLogger(log)}
		if password != "" {
			sopts = append(sopts, store.WithPassword(password, password))
		}
		copts := []viewer.Option{
			viewer.WithLogger(log),
			viewer.WithStore(store.New(sopts...)),
		}
		if opts.ocrDir != "" {
			copts = append(copts, viewer.WithTextProvider(func(page int) *text.PageText {
				return ocrTexts[page]
			}))
		}
		return viewer.New(copts...)
	}

	ctrl := build(opts.password)
	err := ctrl.Open(opts.pdfPath)
	if err == nil {
		return ctrl, nil
	}
	if opts.password != "" || !needsPassword(err) {
		return nil, fmt.Errorf("open %s: %w", opts.pdfPath, err)
	}

	pw, perr := promptPassword()
	if perr != nil {
		return nil, fmt.Errorf("open %s: %w", opts.pdfPath, err)
	}
	ctrl = build(pw)
	if err := ctrl.Open(opts.pdfPath); err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.pdfPath, err)
	}
	return ctrl, nil
}

func needsPassword(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "password") || strings.Contains(s, "encrypt")
}

func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no terminal for password prompt")
	}
	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

// batchReplace masks and retypes every occurrence of phrase across the
// document, one replacement per occurrence so each is undoable on its own.
func batchReplace(ctrl *viewer.Controller, phrase, repl string) int {
	doc := ctrl.Document()
	count := 0
	for page := 0; page < doc.PageCount(); page++ {
		pt := ctrl.PageText(page)
		if pt == nil {
			continue
		}
		for _, r := range pt.FindPhrase(phrase) {
			ctrl.SelectPageRange(page, r)
			if ctrl.ReplaceSelection(repl) > 0 {
				count++
			}
		}
	}
	return count
}
