package stream

import "testing"

func TestAccumulator_ObserverSeesFullText(t *testing.T) {
	acc := NewAccumulator()

	var seen []string
	acc.Observe(func(full string) { seen = append(seen, full) })

	acc.Append("<p>")
	acc.Append("hi")
	acc.Append("</p>")

	want := []string{"<p>", "<p>hi", "<p>hi</p>"}
	if len(seen) != len(want) {
		t.Fatalf("observer called %d times, want %d", len(seen), len(want))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("call %d: got %q, want %q", i, seen[i], want[i])
		}
	}
	if acc.Text() != "<p>hi</p>" {
		t.Errorf("Text() = %q, want %q", acc.Text(), "<p>hi</p>")
	}
}

func TestAccumulator_EmptyDeltaIsNoOp(t *testing.T) {
	acc := NewAccumulator()

	calls := 0
	acc.Observe(func(string) { calls++ })

	acc.Append("")
	if calls != 0 {
		t.Errorf("observer called %d times for empty delta, want 0", calls)
	}
	if acc.Text() != "" {
		t.Errorf("Text() = %q, want empty", acc.Text())
	}
}

func TestAccumulator_ResetKeepsObserver(t *testing.T) {
	acc := NewAccumulator()

	var last string
	acc.Observe(func(full string) { last = full })

	acc.Append("old generation")
	acc.Reset()
	if acc.Text() != "" {
		t.Fatalf("Text() = %q after reset, want empty", acc.Text())
	}

	acc.Append("new")
	if last != "new" {
		t.Errorf("observer saw %q after reset, want %q", last, "new")
	}
}

func TestAccumulator_AppendWithoutObserver(t *testing.T) {
	acc := NewAccumulator()
	acc.Append("no panic")
	if acc.Text() != "no panic" {
		t.Errorf("Text() = %q", acc.Text())
	}
}
