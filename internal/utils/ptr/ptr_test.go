package ptr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/catalogsync/internal/utils/ptr"
)

func TestPtr(t *testing.T) {
	p := ptr.To(42)
	assert.Equal(t, 42, *p)

	assert.Equal(t, 42, ptr.Deref(p, 7))
	assert.Equal(t, 7, ptr.Deref[int](nil, 7))

	c := ptr.Clone(p)
	*c = 1
	assert.Equal(t, 42, *p)
	assert.Nil(t, ptr.Clone[string](nil))
}
