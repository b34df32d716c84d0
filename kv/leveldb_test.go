// Copyright (c) 2021 The Citadel developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelDB(t *testing.T) {
	db, err := NewMem()
	assert.Nil(t, err)
	defer db.Close()

	key := []byte("key")
	value := []byte("value")

	_, err = db.Get(key)
	assert.True(t, db.IsNotFound(err))

	has, err := db.Has(key)
	assert.Nil(t, err)
	assert.False(t, has)

	assert.Nil(t, db.Put(key, value))

	got, err := db.Get(key)
	assert.Nil(t, err)
	assert.Equal(t, value, got)

	has, err = db.Has(key)
	assert.Nil(t, err)
	assert.True(t, has)

	assert.Nil(t, db.Delete(key))
	_, err = db.Get(key)
	assert.True(t, db.IsNotFound(err))
}

func TestLevelDBBatch(t *testing.T) {
	db, err := NewMem()
	assert.Nil(t, err)
	defer db.Close()

	batch := db.NewBatch()
	assert.Nil(t, batch.Put([]byte("k1"), []byte("v1")))
	assert.Nil(t, batch.Put([]byte("k2"), []byte("v2")))
	assert.Equal(t, 2, batch.Len())

	// nothing visible before Write
	_, err = db.Get([]byte("k1"))
	assert.True(t, db.IsNotFound(err))

	assert.Nil(t, batch.Write())

	v1, err := db.Get([]byte("k1"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("v1"), v1)
	v2, err := db.Get([]byte("k2"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("v2"), v2)
}
