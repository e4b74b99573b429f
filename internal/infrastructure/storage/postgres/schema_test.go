package postgres

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaStoresCostsUnscaled(t *testing.T) {
	ddl := Schema()

	for _, column := range []string{"cost_price", "unit_cost", "unit_cost_inc_tax", "total_cost"} {
		re := regexp.MustCompile(`(?m)^\s+` + column + `\s+NUMERIC\s`)
		assert.Regexp(t, re, ddl, column)
	}
	assert.NotContains(t, ddl, "NUMERIC(18")
	assert.Contains(t, ddl, "tax_rate           NUMERIC(7, 4)")
}
