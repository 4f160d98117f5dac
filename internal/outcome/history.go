package outcome

// windowSize caps the rolling history at the last ten outcomes.
const windowSize = 10

// History is the rolling window of recent outcomes, oldest first, with
// the derived frequency map and majority trend. It is rebuilt wholesale
// on every feed refresh rather than updated incrementally.
type History struct {
	Last  []Symbol
	Freq  map[Symbol]float64
	Trend Symbol
}

// NewHistory builds a History from outcomes ordered oldest first,
// keeping at most the trailing windowSize entries.
func NewHistory(last []Symbol) History {
	if len(last) > windowSize {
		last = last[len(last)-windowSize:]
	}

	counts := map[Symbol]int{Red: 0, Blue: 0, Orange: 0}
	for _, s := range last {
		counts[s]++
	}

	freq := make(map[Symbol]float64, len(counts))
	if len(last) > 0 {
		for sym, n := range counts {
			freq[sym] = float64(n) / float64(len(last))
		}
	}

	// Trend is the most frequent symbol; ties resolve by the fixed
	// priority order in Symbols.
	trend := Orange
	best := -1
	for _, sym := range Symbols {
		if counts[sym] > best {
			best = counts[sym]
			trend = sym
		}
	}

	h := History{
		Last:  append([]Symbol(nil), last...),
		Freq:  freq,
		Trend: trend,
	}
	return h
}

// Len returns the number of outcomes in the window.
func (h History) Len() int { return len(h.Last) }

// Latest returns the most recent outcome, or false when the window is
// empty.
func (h History) Latest() (Symbol, bool) {
	if len(h.Last) == 0 {
		return "", false
	}
	return h.Last[len(h.Last)-1], true
}

// Streak reports the symbol repeated across the last three outcomes,
// when all three are equal.
func (h History) Streak() (Symbol, bool) {
	n := len(h.Last)
	if n < 3 {
		return "", false
	}
	if h.Last[n-1] == h.Last[n-2] && h.Last[n-2] == h.Last[n-3] {
		return h.Last[n-1], true
	}
	return "", false
}

// Alternated reports whether the two most recent outcomes differ.
func (h History) Alternated() bool {
	n := len(h.Last)
	return n >= 2 && h.Last[n-1] != h.Last[n-2]
}

// Absent returns the first symbol, in priority order, with zero
// occurrences in the trailing five outcomes. Requires at least five
// outcomes in the window.
func (h History) Absent() (Symbol, bool) {
	n := len(h.Last)
	if n < 5 {
		return "", false
	}

	counts := map[Symbol]int{}
	for _, s := range h.Last[n-5:] {
		counts[s]++
	}
	for _, sym := range Symbols {
		if counts[sym] == 0 {
			return sym, true
		}
	}
	return "", false
}
