package score

import "testing"

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"":                       "",
		"   ":                    "",
		"a  b":                   "a b",
		"\n お手軽\n\n3,000円 \t": "お手軽 3,000円",
		"35回　0.6回/秒":           "35回 0.6回/秒",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q)=%q want %q", in, got, want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"  x ",
		"お手軽\r\n3,000円払って\n\n1,160円分のお寿司をゲット",
		"\t\t35回06。20\v\f",
		"　全角　スペース　",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}
