package notice

import "testing"

func TestBoard(t *testing.T) {
	b := NewBoard(2)
	b.Post(Info, "first")
	b.Post(Error, "second")
	b.Post(Error, "third")

	got := b.Recent(0)
	if len(got) != 2 {
		t.Fatalf("Expected 2 notices, got %d", len(got))
	}
	if got[0].Message != "third" || got[1].Message != "second" {
		t.Errorf("Expected newest first, got %+v", got)
	}
	if one := b.Recent(1); len(one) != 1 || one[0].Level != Error {
		t.Errorf("Unexpected Recent(1): %+v", one)
	}
}
