// Package money formatea importes en pesos para mensajes al operador.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.MustParse("es-AR"))

// Format devuelve el importe con separadores locales y dos decimales, ej. "$ 1.234,50".
// Los negativos conservan el signo delante del símbolo: "-$ 2,00".
func Format(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	f, _ := amount.Round(2).Float64()
	return sign + printer.Sprintf("$ %v", number.Decimal(f, number.Scale(2)))
}

// Units formatea una cantidad entera con separador de miles.
func Units(n int) string {
	return printer.Sprintf("%v", number.Decimal(n))
}
