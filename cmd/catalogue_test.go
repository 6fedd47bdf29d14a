package main

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogueStoreEmpty(t *testing.T) {
	store := catalogueStore{}

	assert.Nil(t, store.snapshot())
}

func TestCatalogueStoreSwap(t *testing.T) {
	store := catalogueStore{}

	first := &catalogueSnapshot{source: "local"}
	store.swap(first)
	assert.Same(t, first, store.snapshot())

	second := &catalogueSnapshot{source: "remote"}
	store.swap(second)
	assert.Same(t, second, store.snapshot())
}

func TestCatalogueStoreConcurrentReaders(t *testing.T) {
	store := catalogueStore{}

	gens := []*catalogueSnapshot{
		{ref: "one"},
		{ref: "two"},
		{ref: "three"},
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, g := range gens {
			store.swap(g)
		}
	}()

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// a reader sees nil or a complete generation, never a torn one
			if snap := store.snapshot(); snap != nil {
				assert.Contains(t, []string{"one", "two", "three"}, snap.ref)
			}
		}()
	}

	wg.Wait()
}

func TestSnapshotRecordLookup(t *testing.T) {
	snap := catalogueSnapshot{
		registers: []registerRecord{
			{Code: "GB-ONE"},
			{Code: "GB-TWO"},
		},
		index: map[string]int{"GB-ONE": 0, "GB-TWO": 1},
	}

	rec := snap.record("GB-TWO")
	require.NotNil(t, rec)
	assert.Equal(t, "GB-TWO", rec.Code)

	assert.Nil(t, snap.record("GB-THREE"))
}

func TestDisplayName(t *testing.T) {
	rec := registerRecord{Code: "FR-TST", Name: map[string]string{"en": "Test register", "fr": "Registre"}}
	assert.Equal(t, "Test register", rec.displayName())

	rec = registerRecord{Code: "FR-TST", Name: map[string]string{"fr": "Registre"}}
	assert.Equal(t, "Registre", rec.displayName())

	rec = registerRecord{Code: "FR-TST"}
	assert.Equal(t, "FR-TST", rec.displayName())
}
