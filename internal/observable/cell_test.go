package observable

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCell_GetSet(t *testing.T) {
	c := NewCell(1)
	assert.Equal(t, 1, c.Get())
	c.Set(2)
	assert.Equal(t, 2, c.Get())
}

func TestCell_SubscribeOrderAndUnsubscribe(t *testing.T) {
	c := NewCell("")
	var first, second Recorder[string]
	unsubFirst := c.Subscribe(first.Record)
	c.Subscribe(second.Record)

	c.Set("a")
	unsubFirst()
	unsubFirst()
	c.Set("b")

	assert.Equal(t, []string{"a"}, first.Values())
	assert.Equal(t, []string{"a", "b"}, second.Values())
}

func TestCell_ListenerSeesNewValue(t *testing.T) {
	c := NewCell(0)
	var seen int
	c.Subscribe(func(int) { seen = c.Get() })
	c.Set(7)
	assert.Equal(t, 7, seen)
}

func TestCell_ConcurrentSet(t *testing.T) {
	c := NewCell(0)
	var rec Recorder[int]
	c.Subscribe(rec.Record)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Set(i)
		}()
	}
	wg.Wait()
	assert.Len(t, rec.Values(), 50)
}
