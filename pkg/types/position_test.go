package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPositionIsClosedWhenSizeZero(t *testing.T) {
	p := Position{Size: dec("0")}
	assert.True(t, p.IsClosed())

	p.Size = dec("0.5")
	assert.False(t, p.IsClosed())
}

func TestBalanceValidInvariant(t *testing.T) {
	b := Balance{Total: dec("100"), Free: dec("60"), Used: dec("40")}
	assert.True(t, b.Valid())

	b.Used = dec("50")
	assert.False(t, b.Valid())
}
