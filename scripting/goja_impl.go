package scripting

import (
	"context"

	"github.com/dop251/goja"
)

type GojaEngine struct {
	vm *goja.Runtime
}

func NewEngine() *GojaEngine {
	vm := goja.New()
	return &GojaEngine{vm: vm}
}

func (e *GojaEngine) Execute(ctx context.Context, script string) (interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	defer close(done)
	defer e.vm.ClearInterrupt()

	go func() {
		select {
		case <-ctx.Done():
			e.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	val, err := e.vm.RunString(script)
	if err != nil {
		if interruptedErr, ok := err.(*goja.InterruptedError); ok {
			if cause := interruptedErr.Unwrap(); cause != nil {
				return nil, cause
			}
			return nil, context.Canceled
		}
		return nil, err
	}
	return val.Export(), nil
}

func (e *GojaEngine) RegisterDOM(dom DOM) error {
	// Expose 'app' object
	appObj := e.vm.NewObject()
	err := appObj.Set("alert", func(call goja.FunctionCall) goja.Value {
		msg := ""
		if len(call.Arguments) > 0 {
			msg = call.Arguments[0].String()
		}
		dom.Alert(msg)
		return goja.Undefined()
	})
	if err != nil {
		return err
	}
	e.vm.Set("app", appObj)

	// Document surface as globals (as if 'this' is the document)
	e.vm.Set("pageCount", func(call goja.FunctionCall) goja.Value {
		return e.vm.ToValue(dom.PageCount())
	})

	e.vm.Set("annotations", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			return e.vm.NewArray()
		}
		page := int(call.Arguments[0].ToInteger())
		proxies := dom.Annotations(page)
		items := make([]interface{}, len(proxies))
		for i, p := range proxies {
			items[i] = e.annotationObject(p)
		}
		return e.vm.NewArray(items...)
	})

	e.vm.Set("replaceSelection", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 6 {
			return e.vm.ToValue(0)
		}
		page := int(call.Arguments[0].ToInteger())
		llx := call.Arguments[1].ToFloat()
		lly := call.Arguments[2].ToFloat()
		urx := call.Arguments[3].ToFloat()
		ury := call.Arguments[4].ToFloat()
		text := call.Arguments[5].String()
		return e.vm.ToValue(dom.ReplaceSelection(page, llx, lly, urx, ury, text))
	})

	e.vm.Set("addText", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 4 {
			return e.vm.ToValue(false)
		}
		page := int(call.Arguments[0].ToInteger())
		x := call.Arguments[1].ToFloat()
		y := call.Arguments[2].ToFloat()
		text := call.Arguments[3].String()
		return e.vm.ToValue(dom.AddText(page, x, y, text))
	})

	e.vm.Set("undo", func(call goja.FunctionCall) goja.Value {
		return e.vm.ToValue(dom.Undo())
	})

	e.vm.Set("redo", func(call goja.FunctionCall) goja.Value {
		return e.vm.ToValue(dom.Redo())
	})

	e.vm.Set("save", func(call goja.FunctionCall) goja.Value {
		if err := dom.Save(); err != nil {
			dom.Alert("save failed: " + err.Error())
			return e.vm.ToValue(false)
		}
		return e.vm.ToValue(true)
	})

	return nil
}

// annotationObject builds the JS view of one annotation: plain fields for
// identity and bounds, an accessor property for contents so assignment
// writes through to the model.
func (e *GojaEngine) annotationObject(a AnnotationProxy) *goja.Object {
	obj := e.vm.NewObject()
	obj.Set("id", a.ID())
	obj.Set("kind", a.Kind())

	llx, lly, urx, ury := a.Bounds()
	bounds := e.vm.NewObject()
	bounds.Set("llx", llx)
	bounds.Set("lly", lly)
	bounds.Set("urx", urx)
	bounds.Set("ury", ury)
	obj.Set("bounds", bounds)

	obj.DefineAccessorProperty("contents",
		e.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return e.vm.ToValue(a.GetContents())
		}),
		e.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) > 0 {
				a.SetContents(call.Arguments[0].String())
			}
			return goja.Undefined()
		}),
		goja.FLAG_TRUE, // Configurable
		goja.FLAG_TRUE, // Enumerable
	)

	return obj
}
