package jitstub

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveCompilesOnceAndPatches(t *testing.T) {
	var compileCount int
	var patchedOffset int
	var patchedAddr uintptr

	m := NewManager(
		func(symbol string) (uintptr, error) {
			compileCount++
			return 0x1000, nil
		},
		func(code []byte, offset int, target uintptr) {
			patchedOffset = offset
			patchedAddr = target
		},
	)

	code := make([]byte, 16)
	addr, err := m.Resolve(code, 4, "f")
	require.NoError(t, err)
	require.Equal(t, uintptr(0x1000), addr)
	require.Equal(t, 4, patchedOffset)
	require.Equal(t, uintptr(0x1000), patchedAddr)

	_, err = m.Resolve(code, 9, "f")
	require.NoError(t, err)
	require.Equal(t, 1, compileCount)
}

func TestResolveConcurrentCallersCompileOnce(t *testing.T) {
	var compileCount int
	var mu sync.Mutex
	m := NewManager(
		func(symbol string) (uintptr, error) {
			mu.Lock()
			compileCount++
			mu.Unlock()
			return 0x2000, nil
		},
		func(code []byte, offset int, target uintptr) {},
	)

	var wg sync.WaitGroup
	code := make([]byte, 16)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(off int) {
			defer wg.Done()
			_, _ = m.Resolve(code, off, "shared")
		}(i)
	}
	wg.Wait()
	require.Equal(t, 1, compileCount)
}

func TestResolvePropagatesCompileError(t *testing.T) {
	m := NewManager(
		func(symbol string) (uintptr, error) { return 0, errors.New("no such symbol") },
		func(code []byte, offset int, target uintptr) {},
	)
	_, err := m.Resolve(nil, 0, "missing")
	require.Error(t, err)
}
