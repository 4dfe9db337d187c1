package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"overtype/scripting"
	"overtype/viewer"
)

func newEngine(ctrl *viewer.Controller) (scripting.Engine, error) {
	eng := scripting.NewEngine()
	if err := eng.RegisterDOM(newDOM(ctrl, os.Stdout)); err != nil {
		return nil, fmt.Errorf("register scripting surface: %w", err)
	}
	return eng, nil
}

// runScript executes a JavaScript batch file. Ctrl-C interrupts the
// running script instead of killing the process mid-save.
func runScript(ctrl *viewer.Controller, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	eng, err := newEngine(ctrl)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if _, err := eng.Execute(ctx, string(src)); err != nil {
		return fmt.Errorf("script %s: %w", filepath.Base(path), err)
	}
	return nil
}

// runConsole reads statements from stdin and evaluates them one by one
// against the open document.
func runConsole(ctrl *viewer.Controller) error {
	eng, err := newEngine(ctrl)
	if err != nil {
		return err
	}
	fmt.Println("JavaScript console: pageCount(), annotations(p), replaceSelection(p, llx, lly, urx, ury, text),")
	fmt.Println("addText(p, x, y, text), undo(), redo(), save(). Type .exit to quit.")

	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !sc.Scan() {
			fmt.Println()
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if line == ".exit" || line == ".quit" {
			return nil
		}
		v, err := eng.Execute(context.Background(), line)
		switch {
		case err != nil:
			fmt.Println("error:", err)
		case v != nil:
			fmt.Println(v)
		}
	}
}
