package score

import "testing"

func TestValidate(t *testing.T) {
	good := newResult(Casual, 1160, 3000, Typing{Correct: 35, Miss: 20, AverageTPS: 0.6})
	if !Validate(good) {
		t.Fatalf("expected valid, problems=%v", Problems(good))
	}

	cases := map[string]Result{
		"unknown course": newResult(Course("deluxe"), 100, 3000, Typing{}),
		"zero paid":      newResult(Premium, 0, 0, Typing{}),
		"negative gain":  newResult(Casual, -5, 3000, Typing{}),
		"net mismatch":   {Course: Casual, Net: 1, Detail: Detail{Paid: 3000, Gain: 100}},
		"negative miss":  newResult(Casual, 100, 3000, Typing{Miss: -1}),
	}
	for name, r := range cases {
		if Validate(r) {
			t.Errorf("%s: expected invalid", name)
		}
		if len(Problems(r)) == 0 {
			t.Errorf("%s: expected problems", name)
		}
	}
}

func TestNewResultNetInvariant(t *testing.T) {
	r := newResult(Standard, 820, 5000, Typing{})
	if r.Net != -4180 {
		t.Fatalf("net=%d want -4180", r.Net)
	}
}
