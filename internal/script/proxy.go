package script

import (
	"github.com/dop251/goja"

	"github.com/scriptbind/bridge/internal/binding"
	"github.com/scriptbind/bridge/internal/exception"
	"github.com/scriptbind/bridge/internal/value"
)

// proxy forwards dynamic property access on a script object to a binding
// Object. It implements goja.DynamicObject and runs only on the script
// thread.
type proxy struct {
	rt      *Runtime
	obj     *binding.Object
	methods map[string]goja.Value
}

// BindProxy builds the script-visible proxy for a binding object. Names
// in methods become callables dispatched through InvokeMethod; every
// other key is treated as a property. Must be installed into the VM via
// SetGlobal or from script-thread code.
func (rt *Runtime) BindProxy(obj *binding.Object, methods []string) *goja.Object {
	p := &proxy{rt: rt, obj: obj, methods: make(map[string]goja.Value, len(methods))}
	for _, name := range methods {
		p.methods[name] = rt.vm.ToValue(p.boundMethod(name))
	}
	return rt.vm.NewDynamicObject(p)
}

func (p *proxy) boundMethod(name string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		args, err := fromGojaArgs(call)
		if err != nil {
			panic(p.rt.vm.NewTypeError("%s", err.Error()))
		}
		var es exception.State
		result := p.obj.InvokeMethod(name, args, &es)
		p.throwIfSet(&es)
		return toGoja(p.rt.vm, result)
	}
}

// throwIfSet converts a settled exception channel into a script
// exception. Checked immediately after every binding call.
func (p *proxy) throwIfSet(es *exception.State) {
	if !es.HasException() {
		return
	}
	if es.Kind() == exception.TypeError {
		panic(p.rt.vm.NewTypeError("%s", es.Message()))
	}
	panic(p.rt.vm.NewGoError(es.Err()))
}

// Get implements goja.DynamicObject.
func (p *proxy) Get(key string) goja.Value {
	if fn, ok := p.methods[key]; ok {
		return fn
	}
	var es exception.State
	result := p.obj.GetProperty(key, &es)
	p.throwIfSet(&es)
	return toGoja(p.rt.vm, result)
}

// Set implements goja.DynamicObject.
func (p *proxy) Set(key string, val goja.Value) bool {
	v, err := fromGoja(val)
	if err != nil {
		panic(p.rt.vm.NewTypeError("%s", err.Error()))
	}
	var es exception.State
	p.obj.SetProperty(key, v, &es)
	p.throwIfSet(&es)
	return true
}

// Has implements goja.DynamicObject.
func (p *proxy) Has(key string) bool {
	if _, ok := p.methods[key]; ok {
		return true
	}
	for _, name := range p.Keys() {
		if name == key {
			return true
		}
	}
	return false
}

// Delete implements goja.DynamicObject. Deletion does not cross the
// boundary.
func (p *proxy) Delete(key string) bool { return false }

// Keys implements goja.DynamicObject through GetAllPropertyNames.
func (p *proxy) Keys() []string {
	var es exception.State
	result := p.obj.GetAllPropertyNames(&es)
	p.throwIfSet(&es)
	if result.Tag() != value.TagList {
		return nil
	}
	items := result.AsList()
	keys := make([]string, 0, len(items))
	for _, item := range items {
		keys = append(keys, item.AsString())
	}
	return keys
}

// BindFunction builds a script-visible callable forwarding into the
// host's anonymous synchronous call path. A host-reported failure is
// reported to the context's error path and yields undefined.
func (rt *Runtime) BindFunction(obj *binding.Object, callID int64) goja.Value {
	return rt.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		args, err := fromGojaArgs(call)
		if err != nil {
			panic(rt.vm.NewTypeError("%s", err.Error()))
		}
		result, ok := obj.AnonymousFunctionCall(callID, args)
		if !ok {
			return goja.Undefined()
		}
		return toGoja(rt.vm, result)
	})
}

// BindAsyncFunction builds a script-visible callable returning a pending
// promise. The host settles it later through the promise bridge; the
// issuing call never blocks the script thread.
func (rt *Runtime) BindAsyncFunction(obj *binding.Object, callID int64) goja.Value {
	return rt.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		args, err := fromGojaArgs(call)
		if err != nil {
			panic(rt.vm.NewTypeError("%s", err.Error()))
		}

		promise, resolve, reject := rt.vm.NewPromise()
		resolver := &gojaResolver{rt: rt, resolve: resolve, reject: reject}

		var es exception.State
		obj.AsyncAnonymousFunctionCall(callID, resolver, args, &es)
		if es.HasException() {
			// Dispatch never reached the host; the promise stays
			// pending, matching the upstream behavior.
			rt.log.Debug("async dispatch failed; promise left pending")
		}
		return rt.vm.ToValue(promise)
	})
}

// gojaResolver settles a goja promise. The bridge invokes it on the
// script thread only.
type gojaResolver struct {
	rt      *Runtime
	resolve func(result any) error
	reject  func(reason any) error
}

func (r *gojaResolver) Resolve(result value.Value) {
	r.resolve(toGoja(r.rt.vm, result))
	r.rt.drainJobs()
}

func (r *gojaResolver) Reject(err error) {
	r.reject(r.rt.vm.NewTypeError("%s", err.Error()))
	r.rt.drainJobs()
}
