package extract

// Anchor is where a question number was printed. Top is measured from the
// top edge of the page.
type Anchor struct {
	Number int
	Page   int
	Top    float64
}

// Anchors keeps question-number positions in first-seen order. Setting a
// number again moves its position but keeps its place in the order.
type Anchors struct {
	order    []int
	byNumber map[int]Anchor
}

func NewAnchors() *Anchors {
	return &Anchors{byNumber: map[int]Anchor{}}
}

func (a *Anchors) Set(number, page int, top float64) {
	if _, ok := a.byNumber[number]; !ok {
		a.order = append(a.order, number)
	}
	a.byNumber[number] = Anchor{Number: number, Page: page, Top: top}
}

func (a *Anchors) Len() int { return len(a.order) }

// All returns the anchors in order.
func (a *Anchors) All() []Anchor {
	out := make([]Anchor, len(a.order))
	for i, n := range a.order {
		out[i] = a.byNumber[n]
	}
	return out
}

// Before returns the last anchor, in order, that sits on an earlier page or
// higher up on the same page.
func (a *Anchors) Before(page int, top float64) (Anchor, bool) {
	var found Anchor
	ok := false
	for _, n := range a.order {
		an := a.byNumber[n]
		if an.Page < page || (an.Page == page && an.Top < top) {
			found, ok = an, true
		}
	}
	return found, ok
}
