package main

import (
	"fmt"
	"io"

	"overtype/document"
	"overtype/scripting"
	"overtype/viewer"
)

// controllerDOM exposes a viewer controller as the scripting surface.
type controllerDOM struct {
	ctrl *viewer.Controller
	out  io.Writer
}

func newDOM(ctrl *viewer.Controller, out io.Writer) scripting.DOM {
	return &controllerDOM{ctrl: ctrl, out: out}
}

func (d *controllerDOM) PageCount() int {
	doc := d.ctrl.Document()
	if doc == nil {
		return 0
	}
	return doc.PageCount()
}

func (d *controllerDOM) Annotations(page int) []scripting.AnnotationProxy {
	doc := d.ctrl.Document()
	if doc == nil {
		return nil
	}
	p := doc.Page(page)
	if p == nil {
		return nil
	}
	out := make([]scripting.AnnotationProxy, 0, len(p.Annotations))
	for _, a := range p.Annotations {
		out = append(out, &annotProxy{doc: doc, page: p, a: a})
	}
	return out
}

func (d *controllerDOM) ReplaceSelection(page int, llx, lly, urx, ury float64, text string) int {
	d.ctrl.SelectPageRange(page, document.Rect{LLX: llx, LLY: lly, URX: urx, URY: ury})
	return d.ctrl.ReplaceSelection(text)
}

func (d *controllerDOM) AddText(page int, x, y float64, text string) bool {
	ed := d.ctrl.Editor()
	if ed == nil {
		return false
	}
	if ed.CreateAt(page, x, y, text) == nil {
		return false
	}
	ed.Commit()
	return true
}

func (d *controllerDOM) Undo() bool { return d.ctrl.Undo() }

func (d *controllerDOM) Redo() bool { return d.ctrl.Redo() }

func (d *controllerDOM) Save() error { return d.ctrl.Save() }

func (d *controllerDOM) Alert(message string) {
	fmt.Fprintln(d.out, message)
}

type annotProxy struct {
	doc  *document.Document
	page *document.Page
	a    document.Annotation
}

func (p *annotProxy) ID() string   { return p.a.ID() }
func (p *annotProxy) Kind() string { return p.a.Kind().String() }

func (p *annotProxy) Bounds() (llx, lly, urx, ury float64) {
	r := p.a.Rect()
	return r.LLX, r.LLY, r.URX, r.URY
}

func (p *annotProxy) GetContents() string {
	if ft, ok := p.a.(*document.FreeText); ok {
		return ft.Contents
	}
	return ""
}

func (p *annotProxy) SetContents(text string) {
	ft, ok := p.a.(*document.FreeText)
	if !ok || ft.Contents == text {
		return
	}
	ft.SetContents(text)
	p.page.Invalidate()
	p.doc.Dirty = true
}
