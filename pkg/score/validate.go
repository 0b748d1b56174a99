package score

// Problems lists the plausibility rules r violates. An empty list means the
// result passed validation.
func Problems(r Result) []string {
	var out []string
	if !r.Course.Known() {
		out = append(out, "unknown course "+string(r.Course))
	}
	if r.Detail.Paid <= 0 {
		out = append(out, "paid amount not recognized")
	}
	if r.Detail.Gain < 0 {
		out = append(out, "negative gain")
	}
	if r.Net != r.Detail.Gain-r.Detail.Paid {
		out = append(out, "net result does not match gain - paid")
	}
	if r.Typing.Correct < 0 || r.Typing.Miss < 0 || r.Typing.AverageTPS < 0 {
		out = append(out, "negative typing statistic")
	}
	return out
}

// Validate reports whether r looks like a plausible result. A false return is a
// warning: the result is still usable.
func Validate(r Result) bool {
	return len(Problems(r)) == 0
}
