package window

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-drawbench/common"
	"github.com/stretchr/testify/assert"
)

func TestKeyPressedForwardsEscape(t *testing.T) {
	var got []uint32
	w := &engineWindow{}
	w.SetKeyDownCallback(func(keyCode uint32) { got = append(got, keyCode) })

	assert.False(t, w.keyPressed(common.Key1))
	assert.True(t, w.keyPressed(common.KeyEsc))
	assert.Equal(t, []uint32{common.Key1, common.KeyEsc}, got)
}

func TestKeyPressedWithoutCallback(t *testing.T) {
	w := &engineWindow{}
	assert.True(t, w.keyPressed(common.KeyEsc))
	assert.False(t, w.keyPressed(common.KeyV))
}
