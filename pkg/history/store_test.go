package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"sushida/pkg/score"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func entry(course score.Course, gain, paid int, tps float64, at time.Time) Entry {
	return Entry{
		AnalyzedAt: at,
		File:       string(course) + ".png",
		Valid:      true,
		Result: score.Result{
			Course: course,
			Net:    gain - paid,
			Detail: score.Detail{Paid: paid, Gain: gain},
			Typing: score.Typing{Correct: 40, Miss: 3, AverageTPS: tps},
		},
	}
}

func TestInsertAndList(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	seed := []Entry{
		entry(score.Casual, 1160, 3000, 0.6, base),
		entry(score.Premium, 12000, 10000, 4.0, base.Add(time.Hour)),
		entry(score.Casual, 3500, 3000, 2.0, base.Add(2*time.Hour)),
	}
	for _, e := range seed {
		if _, err := st.Insert(ctx, e); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	all, err := st.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || !all[0].AnalyzedAt.Equal(base) || all[2].Detail.Gain != 3500 {
		t.Fatalf("unexpected list %+v", all)
	}
	if all[1].Course != score.Premium || !all[1].Valid || all[1].Typing.AverageTPS != 4.0 {
		t.Fatalf("fields not restored: %+v", all[1])
	}

	casual, err := st.List(ctx, Filter{Course: score.Casual})
	if err != nil || len(casual) != 2 {
		t.Fatalf("course filter len=%d err=%v", len(casual), err)
	}

	last, err := st.List(ctx, Filter{Last: 2})
	if err != nil || len(last) != 2 || last[0].Course != score.Premium {
		t.Fatalf("last filter %+v err=%v", last, err)
	}

	since := base.Add(90 * time.Minute)
	recent, err := st.List(ctx, Filter{Since: &since})
	if err != nil || len(recent) != 1 || recent[0].Detail.Gain != 3500 {
		t.Fatalf("since filter %+v err=%v", recent, err)
	}
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, e := range []Entry{
		entry(score.Premium, 12000, 10000, 4.0, base),
		entry(score.Casual, 1160, 3000, 1.0, base.Add(time.Minute)),
		entry(score.Casual, 3500, 3000, 2.0, base.Add(2*time.Minute)),
	} {
		if _, err := st.Insert(ctx, e); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	sum, err := st.Summary(ctx, Filter{})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(sum) != 2 || sum[0].Course != score.Casual || sum[1].Course != score.Premium {
		t.Fatalf("summary order %+v", sum)
	}
	c := sum[0]
	if c.Count != 2 || c.TotalNet != -1340 || c.BestNet != 500 || c.AvgTPS != 1.5 {
		t.Fatalf("casual summary %+v", c)
	}
}

func TestInsertDefaultsTimestamp(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)
	e := entry(score.Standard, 0, 5000, 0, time.Time{})
	if _, err := st.Insert(ctx, e); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := st.List(ctx, Filter{})
	if err != nil || len(got) != 1 || got[0].AnalyzedAt.IsZero() {
		t.Fatalf("timestamp not set: %+v err=%v", got, err)
	}
}

func TestOpenMemory(t *testing.T) {
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()
	if _, err := st.Insert(context.Background(), entry(score.Casual, 100, 3000, 1, time.Now())); err != nil {
		t.Fatalf("insert: %v", err)
	}
}
