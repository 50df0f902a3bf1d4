package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLRU_SaveGet(t *testing.T) {
	c := NewLRU[string, int](2)
	c.Save("a", 1)
	c.Save("b", 2)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	// "b" is now least recently used.
	c.Save("c", 3)
	_, ok = c.Get("b")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())

	c.Save("a", 10)
	v, _ = c.Get("a")
	assert.Equal(t, 10, v)

	st := c.Stats()
	assert.EqualValues(t, 1, st.Evictions)
	assert.EqualValues(t, 1, st.Misses)
	assert.EqualValues(t, 2, st.Hits)
	assert.Equal(t, 2, st.Size)
	assert.Equal(t, 2, st.MaxSize)
}

func TestLRU_Recent(t *testing.T) {
	c := NewLRU[string, string](0)
	for _, k := range []string{"x", "y", "z"} {
		c.Save(k, k)
	}
	c.Get("x")
	assert.Equal(t, []string{"x", "z"}, c.Recent(2))
	assert.Equal(t, []string{"x", "z", "y"}, c.Recent(10))
	assert.Empty(t, NewLRU[string, string](1).Recent(5))
}

func TestLRU_Concurrent(t *testing.T) {
	c := NewLRU[string, int](50)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				k := fmt.Sprintf("%d-%d", g, i)
				c.Save(k, i)
				c.Get(k)
			}
		}(g)
	}
	wg.Wait()
	assert.Equal(t, 50, c.Len())
}
