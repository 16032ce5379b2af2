package database

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluationScoresStoredWithoutRounding(t *testing.T) {
	sql, err := migrations.ReadFile("migrations/00002_program.sql")
	require.NoError(t, err)

	columns := []string{
		"impact", "team", "innovation", "sales", "financing_projection",
		"regional_referral", "rubric_total", "derived_total", "total",
	}
	for _, col := range columns {
		t.Run(col, func(t *testing.T) {
			re := regexp.MustCompile(`(?m)^\s+` + col + `\s+(\S+(?: PRECISION)?)`)
			m := re.FindSubmatch(sql)
			require.NotNil(t, m, "column %s not found", col)
			assert.Equal(t, "DOUBLE PRECISION", string(m[1]))
		})
	}
	assert.NotContains(t, string(sql), "NUMERIC")
}
