package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvokeEachRecoversPerListener(t *testing.T) {
	var ev EventWithArg[int]
	var got []int
	var panics []int

	ev.AddListener(func(v int) { got = append(got, v) })
	ev.AddListener(func(int) { panic("boom") })
	ev.AddListener(func(v int) { got = append(got, v*10) })
	ev.AddListener(nil)

	ev.InvokeEach(2, func(i int, r any) {
		panics = append(panics, i)
		assert.Equal(t, "boom", r)
	})

	assert.Equal(t, []int{2, 20}, got)
	assert.Equal(t, []int{1}, panics)
	assert.Equal(t, 3, ev.GetListenerCount())
}

func TestRemoveAllListeners(t *testing.T) {
	var ev EventWithArg[string]
	calls := 0
	ev.AddListener(func(string) { calls++ })
	ev.InvokeEach("x", nil)
	ev.RemoveAllListeners()
	ev.InvokeEach("x", nil)
	assert.Equal(t, 1, calls)
	assert.Zero(t, ev.GetListenerCount())
}

func TestInvokeEachWithoutPanicHandler(t *testing.T) {
	var ev EventWithArg[int]
	var got []int
	ev.AddListener(func(int) { panic("ignored") })
	ev.AddListener(func(v int) { got = append(got, v) })

	assert.NotPanics(t, func() { ev.InvokeEach(7, nil) })
	assert.Equal(t, []int{7}, got)
}
