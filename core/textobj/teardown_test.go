package textobj

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestTeardownReleasesEverything(t *testing.T) {
	kind := &countingKind{name: "if_existing", role: BlockOpen}
	releases := 0

	inner := kind.new("inner", 2)
	inner.Sub = Chain{NewPlainText("body", 2)}
	inner.Update = countingRegistration{releases: &releases}

	outer := kind.new("outer", 1)
	outer.Sub = Chain{inner}
	outer.Update = countingRegistration{releases: &releases}

	plain := NewPlainText("tail", 3)
	chain := Chain{outer, plain}

	Teardown(chain)

	assert.Equal(t, 0, kind.live)
	assert.Equal(t, 2, releases)
	// Sub-chains are released before their owner.
	if diff := cmp.Diff([]string{"inner", "outer"}, kind.released); diff != "" {
		t.Errorf("release order mismatch (-want +got):\n%s", diff)
	}

	for i, obj := range chain {
		assert.Nil(t, obj, "chain slot %d still referenced", i)
	}
	for _, obj := range []*Object{inner, outer, plain} {
		assert.Nil(t, obj.Kind)
		assert.Nil(t, obj.Payload)
		assert.Nil(t, obj.Sub)
		assert.Nil(t, obj.Update)
		assert.Equal(t, "<released>", obj.String())
	}
}

func TestTeardownEmptyAndNil(t *testing.T) {
	assert.NotPanics(t, func() {
		Teardown(nil)
		Teardown(Chain{})
		Release(nil)
	})
}

func TestTeardownTwiceIsNoop(t *testing.T) {
	kind := &countingKind{name: "exec"}
	releases := 0
	obj := kind.new("uptime", 1)
	obj.Update = countingRegistration{releases: &releases}

	chain := Chain{obj}
	Teardown(chain)
	Teardown(chain)
	Release(obj)

	assert.Equal(t, 0, kind.live)
	assert.Equal(t, 1, releases)
	assert.Len(t, kind.released, 1)
}

func TestReleaseSingleObject(t *testing.T) {
	kind := &countingKind{name: "if_empty", role: BlockOpen}
	obj := kind.new("arg", 1)
	child := kind.new("child", 1)
	obj.Sub = Chain{child}

	Release(obj)

	assert.Equal(t, 0, kind.live)
	assert.Nil(t, obj.Sub)
	assert.Nil(t, child.Kind)
}
