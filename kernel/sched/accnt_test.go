package sched

import "testing"

func TestAccntTickUserAndSystem(t *testing.T) {
	var a Accnt

	a.TickUser(3)
	a.TickUser(2)
	a.TickSystem(7)

	u, s := a.Fetch()
	if u != 5 {
		t.Fatalf("expected 5 user ticks; got %d", u)
	}
	if s != 7 {
		t.Fatalf("expected 7 system ticks; got %d", s)
	}
}

func TestAccntAddMerges(t *testing.T) {
	var a, b Accnt
	a.TickUser(10)
	a.TickSystem(1)
	b.TickUser(5)
	b.TickSystem(2)

	a.Add(&b)

	u, s := a.Fetch()
	if u != 15 || s != 3 {
		t.Fatalf("expected merged totals 15/3; got %d/%d", u, s)
	}

	// b must be unchanged by being merged into a.
	bu, bs := b.Fetch()
	if bu != 5 || bs != 2 {
		t.Fatalf("expected b to be untouched by Add; got %d/%d", bu, bs)
	}
}
