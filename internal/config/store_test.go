// SPDX-License-Identifier: MIT

package config

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groveworks/siteconf/internal/tree"
)

func storeFixture() (*Store, Domain) {
	dom := Domain{
		Name:     "pair",
		Defaults: tree.FromGo(map[string]any{"left": 0, "right": 0}),
		Schema:   Schema{"left": TypeNumber, "right": TypeNumber},
	}
	return NewStore([]Domain{dom}), dom
}

func TestStoreGetNeverNil(t *testing.T) {
	s, _ := storeFixture()

	v := s.Get("pair")
	require.NotNil(t, v, "never-loaded domain must serve its default")
	left, ok := v.Lookup("left")
	require.True(t, ok)
	assert.Equal(t, 0.0, left.NumberVal())

	unknown := s.Get("nonexistent")
	require.NotNil(t, unknown)
	assert.Equal(t, tree.KindMap, unknown.Kind())
	assert.Equal(t, 0, unknown.Len())
}

func TestStoreSetReplacesAtomically(t *testing.T) {
	s, _ := storeFixture()
	next := tree.FromGo(map[string]any{"left": 1, "right": 1})

	s.Set("pair", next)

	assert.True(t, s.Loaded("pair"))
	got, _ := s.Get("pair").Lookup("left")
	assert.Equal(t, 1.0, got.NumberVal())
}

func TestStoreSetUnknownDomainIgnored(t *testing.T) {
	s, _ := storeFixture()
	s.Set("ghost", tree.Map())
	assert.False(t, s.Loaded("ghost"))
	assert.Equal(t, 0, s.Get("ghost").Len())
}

// Concurrent readers around a reload must never observe a snapshot mixing
// pre- and post-reload leaves.
func TestStoreSnapshotsAreConsistentUnderConcurrentSwaps(t *testing.T) {
	s, _ := storeFixture()

	const iterations = 2000
	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			v := float64(i)
			s.Set("pair", tree.FromGo(map[string]any{"left": v, "right": v}))
		}
		close(stop)
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := s.All()["pair"]
				left, _ := snap.Lookup("left")
				right, _ := snap.Lookup("right")
				if left.NumberVal() != right.NumberVal() {
					t.Errorf("torn snapshot: left=%v right=%v", left.NumberVal(), right.NumberVal())
					return
				}
			}
		}()
	}

	wg.Wait()
}

func TestStoreAllCoversEveryDomain(t *testing.T) {
	a := Domain{Name: "a", Defaults: tree.FromGo(map[string]any{"v": 1}), Schema: Schema{"v": TypeNumber}}
	b := Domain{Name: "b", Defaults: tree.FromGo(map[string]any{"v": 2}), Schema: Schema{"v": TypeNumber}}
	s := NewStore([]Domain{a, b})

	all := s.All()
	require.Len(t, all, 2)
	av, _ := all["a"].Lookup("v")
	assert.Equal(t, 1.0, av.NumberVal())
	bv, _ := all["b"].Lookup("v")
	assert.Equal(t, 2.0, bv.NumberVal())
}
