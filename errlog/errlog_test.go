package errlog

import "testing"

func TestCountAndMerge(t *testing.T) {
	a := New()
	a.Errorf(nil, "missing %s", "mesh")
	a.Warnf(nil, "odd")

	b := New()
	b.Infof(nil, "fine")
	b.Warnf(nil, "odd again")

	a.Merge(b)
	a.Merge(nil)

	if got := len(a.Messages()); got != 4 {
		t.Fatalf("len(Messages) = %d, want 4", got)
	}
	if got := a.Count(Warning); got != 2 {
		t.Errorf("Count(Warning) = %d, want 2", got)
	}
	if got := a.Count(Error); got != 1 {
		t.Errorf("Count(Error) = %d, want 1", got)
	}
	if a.Messages()[0].Text != "missing mesh" {
		t.Errorf("first text = %q", a.Messages()[0].Text)
	}
}

func TestFilteredSpamBins(t *testing.T) {
	l := New()
	for i := 0; i < 5; i++ {
		l.Add(Message{Severity: Warning, Text: "unknown tag", Bin: SpamUnknownTag})
	}
	l.Errorf(nil, "real problem")

	msgs, dropped := l.Filtered(2)
	if len(msgs) != 3 {
		t.Fatalf("kept %d messages, want 3", len(msgs))
	}
	if dropped != 3 {
		t.Errorf("dropped = %d, want 3", dropped)
	}
	if msgs[2].Severity != Error {
		t.Errorf("unbinned message was filtered")
	}
}

type namedCtx string

func (n namedCtx) DisplayName() string { return string(n) }

func TestContextName(t *testing.T) {
	if got := contextName(namedCtx("Hat")); got != "Hat" {
		t.Errorf("contextName = %q, want Hat", got)
	}
	if got := contextName(42); got != "" {
		t.Errorf("contextName(int) = %q, want empty", got)
	}
}
