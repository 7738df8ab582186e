package dataset

import (
	"math/rand"
	"reflect"
	"sort"
	"testing"
)

func TestShufflePreservesAnswer(t *testing.T) {
	q := Question{
		Question: "pick one",
		Options:  map[string]string{"A": "apple", "B": "banana", "C": "cherry", "D": "durian"},
		Answer:   "C",
	}

	for seed := int64(0); seed < 20; seed++ {
		s := NewShuffler(rand.New(rand.NewSource(seed)))
		got := s.Shuffle(q)

		if got.Question != q.Question {
			t.Fatalf("seed %d: question text changed", seed)
		}
		if len(got.Options) != len(q.Options) {
			t.Fatalf("seed %d: option count changed: %v", seed, got.Options)
		}

		var before, after []string
		for _, v := range q.Options {
			before = append(before, v)
		}
		for _, v := range got.Options {
			after = append(after, v)
		}
		sort.Strings(before)
		sort.Strings(after)
		if !reflect.DeepEqual(before, after) {
			t.Fatalf("seed %d: option texts changed: %v vs %v", seed, before, after)
		}

		text, ok := got.OptionText(got.Answer)
		if !ok {
			t.Fatalf("seed %d: answer %q has no option", seed, got.Answer)
		}
		if text != "cherry" {
			t.Fatalf("seed %d: answer points at %q, want cherry", seed, text)
		}
	}
}

func TestShuffleDeterministic(t *testing.T) {
	q := Question{
		Question: "pick one",
		Options:  map[string]string{"A": "1", "B": "2", "C": "3", "D": "4"},
		Answer:   "A",
	}

	a := NewShuffler(rand.New(rand.NewSource(42))).Shuffle(q)
	b := NewShuffler(rand.New(rand.NewSource(42))).Shuffle(q)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different shuffles: %+v vs %+v", a, b)
	}
}

func TestShuffleNoOptions(t *testing.T) {
	q := Question{Question: "no options", Answer: "A"}
	got := NewShuffler(rand.New(rand.NewSource(1))).Shuffle(q)
	if !reflect.DeepEqual(got, q) {
		t.Fatalf("question without options changed: %+v", got)
	}
}

func TestShuffleDuplicateText(t *testing.T) {
	q := Question{
		Question: "dup",
		Options:  map[string]string{"A": "same", "B": "same", "C": "other", "D": "misc"},
		Answer:   "B",
	}

	got := NewShuffler(rand.New(rand.NewSource(7))).Shuffle(q)
	text, ok := got.OptionText(got.Answer)
	if !ok {
		t.Fatalf("answer %q has no option", got.Answer)
	}
	if text != "same" {
		t.Fatalf("answer points at %q, want the duplicated text", text)
	}
}

func TestShufflePartialOptions(t *testing.T) {
	q := Question{
		Question: "two options",
		Options:  map[string]string{"A": "yes", "B": "no"},
		Answer:   "B",
	}

	got := NewShuffler(rand.New(rand.NewSource(3))).Shuffle(q)
	if len(got.Options) != 2 {
		t.Fatalf("got %d options, want 2", len(got.Options))
	}
	for label := range got.Options {
		if label != "A" && label != "B" {
			t.Fatalf("relabeled outside canonical prefix: %q", label)
		}
	}
	if text, _ := got.OptionText(got.Answer); text != "no" {
		t.Fatalf("answer points at %q, want no", text)
	}
}
