package money_test

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/kiosco-pos/pkg/money"
)

func TestFormat_SeparadoresLocales(t *testing.T) {
	out := money.Format(decimal.RequireFromString("1234.5"))

	assert.True(t, strings.HasPrefix(out, "$ "), out)
	assert.Contains(t, out, "1.234")
	assert.Contains(t, out, ",50")
}

func TestFormat_Negativo(t *testing.T) {
	out := money.Format(decimal.NewFromInt(-2))

	assert.True(t, strings.HasPrefix(out, "-$ "), out)
	assert.Contains(t, out, "2,00")
}
