package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTradeCostWithinTolerance(t *testing.T) {
	tr := Trade{Price: dec("100"), Amount: dec("2"), Cost: dec("200.05")}
	assert.True(t, tr.CostWithinTolerance(dec("0.001")))
	assert.False(t, tr.CostWithinTolerance(dec("0.00001")))
}

func TestTradeCostWithinToleranceZeroExpected(t *testing.T) {
	tr := Trade{Price: dec("0"), Amount: dec("2"), Cost: dec("0")}
	assert.True(t, tr.CostWithinTolerance(dec("0.001")))
}
