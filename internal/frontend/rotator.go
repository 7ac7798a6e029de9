package frontend

// QuoteRotator cycles the banner quotations in order, wrapping after the last one.
type QuoteRotator struct {
	quotes []string
	index  int
}

// NewQuoteRotator starts at the first quotation.
func NewQuoteRotator(quotes []string) *QuoteRotator {
	return &QuoteRotator{quotes: append([]string(nil), quotes...)}
}

// Tick advances one timer period and returns the quotation now displayed.
func (r *QuoteRotator) Tick() string {
	if len(r.quotes) == 0 {
		return ""
	}
	r.index = (r.index + 1) % len(r.quotes)
	return r.quotes[r.index]
}

// Index is the position of the displayed quotation.
func (r *QuoteRotator) Index() int { return r.index }

// Current is the displayed quotation.
func (r *QuoteRotator) Current() string {
	if len(r.quotes) == 0 {
		return ""
	}
	return r.quotes[r.index]
}
