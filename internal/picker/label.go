package picker

import "github.com/kjlabs/bacbot/internal/outcome"

// Label is one of the six fixed bet categories offered to the channel:
// the three single colors and the three pair combinations.
type Label string

const (
	Blue       Label = "🔵 Azul"
	Orange     Label = "🟠 Laranja"
	Red        Label = "🔴 Vermelho"
	OrangeBlue Label = "🟠+🔵 Laranja e Azul"
	OrangeRed  Label = "🟠+🔴 Laranja e Vermelho"
	BlueRed    Label = "🔵+🔴 Azul e Vermelho"
)

// Labels lists every bet category.
var Labels = []Label{OrangeBlue, OrangeRed, Orange, Blue, Red, BlueRed}

// Covers reports whether a round outcome counts as a hit for this bet:
// a single-color bet needs the exact symbol, a pair bet accepts either
// of its two colors.
func (l Label) Covers(s outcome.Symbol) bool {
	switch l {
	case Blue:
		return s == outcome.Blue
	case Orange:
		return s == outcome.Orange
	case Red:
		return s == outcome.Red
	case OrangeBlue:
		return s == outcome.Orange || s == outcome.Blue
	case OrangeRed:
		return s == outcome.Orange || s == outcome.Red
	case BlueRed:
		return s == outcome.Blue || s == outcome.Red
	}
	return false
}
