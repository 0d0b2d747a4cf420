package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBillingCycleValid(t *testing.T) {
	assert.True(t, BillingCycleMonthly.Valid())
	assert.True(t, BillingCycleQuarterly.Valid())
	assert.True(t, BillingCycleAnnually.Valid())
	assert.False(t, BillingCycle("weekly").Valid())
	assert.False(t, BillingCycle("").Valid())
}
