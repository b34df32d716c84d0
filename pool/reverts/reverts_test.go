// Copyright (c) 2021 The Citadel developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestRevert(t *testing.T) {
	err := New(InvalidAmount, "Pool: Amount is invalid")
	assert.Equal(t, "Pool: Amount is invalid", err.Error())
	assert.Equal(t, InvalidAmount, err.Code())
	assert.True(t, IsRevertErr(err))
	assert.True(t, Is(err, InvalidAmount))
	assert.False(t, Is(err, PoolDisabled))
}

func TestWrappedRevert(t *testing.T) {
	err := errors.Wrap(New(PoolDisabled, "Pool: Pool disabled"), "deposit")
	assert.True(t, IsRevertErr(err))
	assert.Equal(t, PoolDisabled, CodeOf(err))
}

func TestNotRevert(t *testing.T) {
	assert.False(t, IsRevertErr(nil))
	assert.False(t, IsRevertErr(errors.New("plain")))
	assert.Equal(t, Code(0), CodeOf(errors.New("plain")))
}
