package transcript

import (
	"sync"
	"testing"
)

func TestCommitTurn(t *testing.T) {
	tests := []struct {
		name      string
		caller    []string
		assistant []string
		want      []Turn
	}{
		{
			name: "both empty",
			want: nil,
		},
		{
			name:   "caller only",
			caller: []string{"I was ", "in an accident"},
			want:   []Turn{{Caller, "I was in an accident"}},
		},
		{
			name:      "assistant only",
			assistant: []string{"Hello, ", "how can I help?"},
			want:      []Turn{{Assistant, "Hello, how can I help?"}},
		},
		{
			name:      "caller before assistant",
			assistant: []string{"Understood."},
			caller:    []string{"My court date is Monday."},
			want: []Turn{
				{Caller, "My court date is Monday."},
				{Assistant, "Understood."},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAggregator()
			for _, d := range tt.assistant {
				a.AppendAssistantDelta(d)
			}
			for _, d := range tt.caller {
				a.AppendCallerDelta(d)
			}

			got := a.CommitTurn()
			if len(got) != len(tt.want) {
				t.Fatalf("CommitTurn() returned %d turns, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("turn %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
			if a.Len() != len(tt.want) {
				t.Errorf("Len() = %d, want %d", a.Len(), len(tt.want))
			}

			c, as := a.Pending()
			if c != "" || as != "" {
				t.Errorf("Pending() = %q, %q after commit", c, as)
			}
		})
	}
}

func TestCommitTurn_HistoryOrder(t *testing.T) {
	a := NewAggregator()

	a.AppendAssistantDelta("Hi, this is the intake line.")
	a.CommitTurn()
	a.AppendCallerDelta("Hi.")
	a.CommitTurn()
	a.CommitTurn()
	a.AppendCallerDelta("I need help.")
	a.AppendAssistantDelta("Sure.")
	a.CommitTurn()

	want := "Assistant: Hi, this is the intake line.\nCaller: Hi.\nCaller: I need help.\nAssistant: Sure."
	if got := a.Text(); got != want {
		t.Errorf("Text() =\n%s\nwant\n%s", got, want)
	}
}

func TestHistory_IsCopy(t *testing.T) {
	a := NewAggregator()
	a.AppendCallerDelta("original")
	a.CommitTurn()

	h := a.History()
	h[0].Text = "changed"

	if a.History()[0].Text != "original" {
		t.Error("History() exposed internal slice")
	}
}

func TestReset(t *testing.T) {
	a := NewAggregator()
	a.AppendCallerDelta("x")
	a.CommitTurn()
	a.AppendAssistantDelta("y")

	a.Reset()

	if a.Len() != 0 {
		t.Errorf("Len() = %d after Reset", a.Len())
	}
	if c, as := a.Pending(); c != "" || as != "" {
		t.Errorf("Pending() = %q, %q after Reset", c, as)
	}
}

func TestConcurrentReaders(t *testing.T) {
	a := NewAggregator()
	var wg sync.WaitGroup

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = a.Text()
				_, _ = a.Pending()
			}
		}()
	}
	for j := 0; j < 100; j++ {
		a.AppendCallerDelta("a")
		a.CommitTurn()
	}
	wg.Wait()

	if a.Len() != 100 {
		t.Errorf("Len() = %d, want 100", a.Len())
	}
}
