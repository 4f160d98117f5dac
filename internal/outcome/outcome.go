package outcome

// Symbol is one of the three categorical Bac Bo round results.
type Symbol string

const (
	Red    Symbol = "🔴"
	Blue   Symbol = "🔵"
	Orange Symbol = "🟠"
)

// Symbols lists every symbol in priority order. The order doubles as
// the deterministic tie-break for trend computation: Red wins over
// Blue, Blue over Orange.
var Symbols = []Symbol{Red, Blue, Orange}

// FromColor maps a feed color name to its symbol. Unknown or missing
// colors classify as Orange (the tie result).
func FromColor(name string) Symbol {
	switch name {
	case "red":
		return Red
	case "blue":
		return Blue
	case "orange":
		return Orange
	default:
		return Orange
	}
}

// Name returns the Portuguese display name used in channel messages.
func (s Symbol) Name() string {
	switch s {
	case Red:
		return "Vermelho"
	case Blue:
		return "Azul"
	case Orange:
		return "Laranja"
	}
	return string(s)
}
