package textobj

// Teardown releases every object in c. For each object the sub-chain goes
// first, then the update registration, then the kind's release hook, and
// finally the object is cleared so a second Teardown finds nothing to do.
// A nil or empty chain is a no-op.
func Teardown(c Chain) {
	for i, obj := range c {
		if obj == nil {
			continue
		}
		release(obj)
		c[i] = nil
	}
}

func release(obj *Object) {
	Teardown(obj.Sub)
	obj.Sub = nil

	if obj.Update != nil {
		obj.Update.Release()
		obj.Update = nil
	}

	if r, ok := obj.Kind.(Releaser); ok {
		r.Release(obj)
	}

	obj.Payload = nil
	obj.Kind = nil
}

// Release tears down a single object that was never linked into a chain.
func Release(obj *Object) {
	if obj == nil {
		return
	}
	release(obj)
}
