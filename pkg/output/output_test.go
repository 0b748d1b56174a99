package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"sushida/pkg/score"
)

var at = time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)

func sample(file string) Record {
	return NewRecord(file, score.Result{
		Course: score.Casual,
		Net:    -1840,
		Detail: score.Detail{Paid: 3000, Gain: 1160},
		Typing: score.Typing{Correct: 35, Miss: 20, AverageTPS: 0.6},
	}, at)
}

func TestWriteJSONShape(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, JSON, []Record{sample("寿司.png")}); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"file": "寿司.png"`) {
		t.Fatalf("non-ascii should be kept verbatim:\n%s", out)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["course"] != "casual" || got["result"].(float64) != -1840 {
		t.Fatalf("unexpected top level %v", got)
	}
	detail := got["detail"].(map[string]any)
	typing := got["typing"].(map[string]any)
	if detail["payed"].(float64) != 3000 || typing["avarageTPS"].(float64) != 0.6 {
		t.Fatalf("unexpected nested fields %v %v", detail, typing)
	}
}

func TestWriteJSONList(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, JSON, []Record{sample("a.png"), sample("b.png")}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var got []Record
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 2 || got[1].File != "b.png" || got[1].Typing.Miss != 20 {
		t.Fatalf("unexpected %+v", got)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, CSV, []Record{sample("a.png")}); err != nil {
		t.Fatalf("write: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows=%d want 2", len(rows))
	}
	if strings.Join(rows[0], ",") != "timestamp,course,result,payed,gain,correct,avarageTPS,miss" {
		t.Fatalf("header %v", rows[0])
	}
	want := "2024-01-02T15:04:05Z,casual,-1840,3000,1160,35,0.6,20"
	if strings.Join(rows[1], ",") != want {
		t.Fatalf("row %v want %s", rows[1], want)
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, YAML, []Record{sample("a.png")}); err != nil {
		t.Fatalf("write: %v", err)
	}
	for _, want := range []string{"course: casual", "result: -1840", "payed: 3000", "avarageTPS: 0.6"} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("yaml missing %q:\n%s", want, buf.String())
		}
	}
	var back Record
	if err := yaml.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Detail.Gain != 1160 || back.File != "a.png" {
		t.Fatalf("unexpected %+v", back)
	}
}

func TestWriteErrors(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, JSON, nil); !errors.Is(err, ErrNoRecords) {
		t.Fatalf("err=%v want ErrNoRecords", err)
	}
	if err := Write(&buf, Format("xml"), []Record{sample("a")}); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("err=%v want ErrUnknownFormat", err)
	}
	if _, err := ParseFormat("toml"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("err=%v want ErrUnknownFormat", err)
	}
	if f, err := ParseFormat("YML"); err != nil || f != YAML {
		t.Fatalf("ParseFormat(YML)=%s,%v", f, err)
	}
}

func TestSaveCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "out.csv")
	if err := Save(path, CSV, []Record{sample("a.png")}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat: %v", err)
	}
}

func TestAppendJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scores.json")

	if err := AppendJSON(path, sample("a.png")); err != nil {
		t.Fatalf("append new: %v", err)
	}
	if n := len(LoadJSON(path)); n != 1 {
		t.Fatalf("len=%d want 1", n)
	}
	if err := AppendJSON(path, sample("b.png")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if n := len(LoadJSON(path)); n != 2 {
		t.Fatalf("len=%d want 2", n)
	}

	single := filepath.Join(dir, "single.json")
	if err := os.WriteFile(single, []byte(`{"course":"premium"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := AppendJSON(single, sample("c.png")); err != nil {
		t.Fatalf("append to object: %v", err)
	}
	var list []map[string]any
	data, _ := os.ReadFile(single)
	if err := json.Unmarshal(data, &list); err != nil || len(list) != 2 || list[0]["course"] != "premium" {
		t.Fatalf("object not converted to list: %s (%v)", data, err)
	}

	broken := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(broken, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := AppendJSON(broken, sample("d.png")); err != nil {
		t.Fatalf("append to broken: %v", err)
	}
	if n := len(LoadJSON(broken)); n != 1 {
		t.Fatalf("broken file should restart the list, len=%d", n)
	}
}

func TestPathHelpers(t *testing.T) {
	if got := ResolvePath("out/result", CSV); got != "out/result.csv" {
		t.Fatalf("ResolvePath=%s", got)
	}
	if got := ResolvePath("out/result.txt", YAML); got != "out/result.txt" {
		t.Fatalf("ResolvePath kept extension wrong: %s", got)
	}
	if got := BackupName(filepath.Join("dir", "scores.json"), at); got != filepath.Join("dir", "scores_backup_20240102_150405.json") {
		t.Fatalf("BackupName=%s", got)
	}
	sizes := map[int64]string{0: "0.0 B", 512: "512.0 B", 1536: "1.5 KB", 5 << 20: "5.0 MB", 3 << 40: "3.0 TB"}
	for n, want := range sizes {
		if got := HumanSize(n); got != want {
			t.Errorf("HumanSize(%d)=%s want %s", n, got, want)
		}
	}
	if FileSize(filepath.Join(t.TempDir(), "missing")) != "0 B" {
		t.Fatalf("missing file size")
	}
}

func TestIsImageFile(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "shot.PNG")
	txt := filepath.Join(dir, "notes.txt")
	for _, p := range []string{img, txt} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if !IsImageFile(img) {
		t.Fatalf("upper-case extension should be accepted")
	}
	if IsImageFile(txt) || IsImageFile(filepath.Join(dir, "gone.png")) || IsImageFile(dir) {
		t.Fatalf("non images accepted")
	}
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderTable(&buf, []Record{sample("寿司.png"), sample("plain.png")}); err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines=%d\n%s", len(lines), buf.String())
	}
	// 寿司.png is two wide runes, so both file cells pad to the same width
	// and the course column starts at the same display offset.
	if !strings.HasPrefix(lines[1], "寿司.png   お手軽") || !strings.HasPrefix(lines[2], "plain.png  お手軽") {
		t.Fatalf("misaligned table:\n%s", buf.String())
	}
	if !strings.Contains(lines[1], "-1,840") {
		t.Fatalf("net not formatted: %s", lines[1])
	}
}
