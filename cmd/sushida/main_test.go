package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sushida/pkg/history"
	"sushida/pkg/ocr"
	"sushida/pkg/score"
)

const fullScreen = "お手軽 3,000円払って 1,160円分のお寿司をゲット 35回 0.6回/秒 ミスタイプ 20"

// fakeExtractor serves transcripts by file base name instead of running OCR.
type fakeExtractor struct {
	texts map[string]string
}

func (f fakeExtractor) Candidates(_ context.Context, path string) ([]ocr.Candidate, error) {
	return []ocr.Candidate{{Pass: "fake", Text: f.texts[filepath.Base(path)]}}, nil
}

func (f fakeExtractor) ExtractScore(_ context.Context, path string) (ocr.Extraction, error) {
	text := f.texts[filepath.Base(path)]
	if strings.TrimSpace(text) == "" {
		return ocr.Extraction{}, ocr.ErrNoText
	}
	res, valid, err := score.NewParser(log.New(io.Discard, "", 0)).Parse(text)
	if err != nil {
		return ocr.Extraction{Text: text}, err
	}
	return ocr.Extraction{Text: text, Pass: "fake", Result: res, Valid: valid, Problems: score.Problems(res)}, nil
}

type env struct {
	dir     string
	dataDir string
	app     *app
}

func newEnv(t *testing.T, texts map[string]string) *env {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	a := newApp()
	a.newExtractor = func(*app, bool) extractor { return fakeExtractor{texts: texts} }
	a.now = func() time.Time { return time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC) }
	for name := range texts {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("img"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return &env{dir: dir, dataDir: filepath.Join(dir, "data", "sushida"), app: a}
}

func (e *env) run(stdin string, args ...string) (string, string, error) {
	root := newRootCmd(e.app)
	var out, errb bytes.Buffer
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errb)
	err := root.Execute()
	return out.String(), errb.String(), err
}

func (e *env) path(name string) string { return filepath.Join(e.dir, name) }

func TestParseCommandStdin(t *testing.T) {
	e := newEnv(t, nil)
	out, stderr, err := e.run(fullScreen, "parse")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, out)
	}
	if got["result"].(float64) != -1840 || got["course"] != "casual" {
		t.Fatalf("unexpected output %v", got)
	}
	if !strings.Contains(stderr, "解析完了!") {
		t.Fatalf("summary missing from stderr: %s", stderr)
	}
}

func TestParseCommandEmpty(t *testing.T) {
	e := newEnv(t, nil)
	_, _, err := e.run("  \n", "parse")
	if err == nil || !strings.Contains(err.Error(), "解析失敗") {
		t.Fatalf("err=%v", err)
	}
}

func TestParseCommandFileAndFormat(t *testing.T) {
	e := newEnv(t, nil)
	transcript := e.path("screen.txt")
	if err := os.WriteFile(transcript, []byte(fullScreen), 0o644); err != nil {
		t.Fatal(err)
	}
	out, _, err := e.run("", "parse", transcript, "--format", "csv", "-q")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "timestamp,course") || !strings.Contains(lines[1], "casual,-1840,3000,1160,35,0.6,20") {
		t.Fatalf("unexpected csv:\n%s", out)
	}
}

func TestConfigFileSetsDefaultFormat(t *testing.T) {
	e := newEnv(t, nil)
	cfgPath := e.path("config.toml")
	if err := os.WriteFile(cfgPath, []byte("[output]\nformat = \"yaml\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, _, err := e.run(fullScreen, "--config", cfgPath, "parse", "-q")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !strings.Contains(out, "payed: 3000") {
		t.Fatalf("config format not applied:\n%s", out)
	}
	out, _, err = e.run(fullScreen, "--config", cfgPath, "parse", "-q", "--format", "json")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !strings.Contains(out, `"payed": 3000`) {
		t.Fatalf("flag should win over config:\n%s", out)
	}
}

func TestAnalyzeSavesResultAndHistory(t *testing.T) {
	e := newEnv(t, map[string]string{"shot.png": fullScreen})
	if _, _, err := e.run("", "analyze", e.path("shot.png"), "-q"); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(e.dataDir, "scores", "shot.json"))
	if err != nil {
		t.Fatalf("default output missing: %v", err)
	}
	if !strings.Contains(string(data), `"avarageTPS": 0.6`) {
		t.Fatalf("unexpected json %s", data)
	}

	st, err := history.Open(filepath.Join(e.dataDir, "history.db"))
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer st.Close()
	entries, err := st.List(context.Background(), history.Filter{})
	if err != nil || len(entries) != 1 || entries[0].Net != -1840 || !entries[0].Valid {
		t.Fatalf("history %+v err=%v", entries, err)
	}
}

func TestAnalyzeExplicitOutput(t *testing.T) {
	e := newEnv(t, map[string]string{"shot.png": fullScreen})
	dst := e.path(filepath.Join("out", "result"))
	out, _, err := e.run("", "analyze", e.path("shot.png"), "-o", dst, "--format", "yaml", "--no-history")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !strings.Contains(out, "コース: お手軽") {
		t.Fatalf("summary missing:\n%s", out)
	}
	if _, err := os.Stat(dst + ".yaml"); err != nil {
		t.Fatalf("yaml output missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(e.dataDir, "history.db")); !os.IsNotExist(err) {
		t.Fatalf("--no-history should not create the database")
	}
}

func TestAnalyzeAppendAndBackup(t *testing.T) {
	e := newEnv(t, map[string]string{"shot.png": fullScreen})
	dst := e.path("results.json")
	for i := 0; i < 2; i++ {
		if _, _, err := e.run("", "analyze", e.path("shot.png"), "-o", dst, "--append", "--no-history", "-q"); err != nil {
			t.Fatalf("analyze --append: %v", err)
		}
	}
	var list []json.RawMessage
	data, _ := os.ReadFile(dst)
	if err := json.Unmarshal(data, &list); err != nil || len(list) != 2 {
		t.Fatalf("expected 2 appended records, got %d err=%v", len(list), err)
	}

	if _, _, err := e.run("", "analyze", e.path("shot.png"), "-o", dst, "--backup", "--no-history", "-q"); err != nil {
		t.Fatalf("analyze --backup: %v", err)
	}
	backup, err := os.ReadFile(e.path("results_backup_20240304_050607.json"))
	if err != nil || !bytes.Equal(backup, data) {
		t.Fatalf("backup mismatch err=%v", err)
	}
	var obj map[string]any
	data, _ = os.ReadFile(dst)
	if err := json.Unmarshal(data, &obj); err != nil {
		t.Fatalf("expected a single object after overwrite: %v", err)
	}

	if _, _, err := e.run("", "analyze", e.path("shot.png"), "--append", "--format", "csv"); !errors.Is(err, errAppendNeedsJSON) {
		t.Fatalf("err=%v want errAppendNeedsJSON", err)
	}
}

func TestAnalyzeRejects(t *testing.T) {
	e := newEnv(t, map[string]string{"notes.txt": fullScreen, "blank.png": ""})
	if _, _, err := e.run("", "analyze", e.path("notes.txt")); err == nil || !strings.Contains(err.Error(), "サポートされていない") {
		t.Fatalf("err=%v", err)
	}
	if _, _, err := e.run("", "analyze", e.path("blank.png")); err == nil || !strings.Contains(err.Error(), "テキストを抽出できませんでした") {
		t.Fatalf("err=%v", err)
	}
}

func TestBatchContinueOnError(t *testing.T) {
	e := newEnv(t, map[string]string{
		"a.png":     fullScreen,
		"b.png":     "高級 10,000円払って 3,420円分のお寿司をゲット 正しく打ったキーの数 180 平均タイプ数 3.2回/秒 ミスタイプ数 12",
		"blank.png": "",
	})
	outDir := e.path("results")
	out, _, err := e.run("", "batch", e.path("a.png"), e.path("blank.png"), e.path("b.png"),
		"--continue-on-error", "--format", "csv", "-o", outDir, "--workers", "2", "--table", "--no-history")
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if !strings.Contains(out, "2件成功, 1件失敗") || !strings.Contains(out, "blank.png") {
		t.Fatalf("unexpected report:\n%s", out)
	}
	data, err := os.ReadFile(filepath.Join(outDir, "batch_results.csv"))
	if err != nil {
		t.Fatalf("csv missing: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 || !strings.Contains(lines[1], "casual") || !strings.Contains(lines[2], "premium,-6580") {
		t.Fatalf("rows should keep input order:\n%s", data)
	}
}

func TestBatchStopsOnError(t *testing.T) {
	e := newEnv(t, map[string]string{"a.png": fullScreen, "bad.gif": ""})
	if _, _, err := e.run("", "batch", e.path("bad.gif"), e.path("a.png"), "--workers", "1", "--no-history"); err == nil {
		t.Fatalf("expected failure without --continue-on-error")
	}
}

func TestBatchJSONDefaultsToScoreDir(t *testing.T) {
	e := newEnv(t, map[string]string{"a.png": fullScreen, "b.jpg": fullScreen})
	if _, _, err := e.run("", "batch", e.path("a.png"), e.path("b.jpg"), "--no-history"); err != nil {
		t.Fatalf("batch: %v", err)
	}
	for _, name := range []string{"a.json", "b.json"} {
		if _, err := os.Stat(filepath.Join(e.dataDir, "scores", name)); err != nil {
			t.Fatalf("%s missing: %v", name, err)
		}
	}
}

func TestHistoryCommand(t *testing.T) {
	e := newEnv(t, map[string]string{"a.png": fullScreen})
	if _, _, err := e.run("", "analyze", e.path("a.png"), "-q"); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	out, _, err := e.run("", "history", "--summary")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "お手軽") || !strings.Contains(out, "-1,840") {
		t.Fatalf("unexpected summary:\n%s", out)
	}
	out, _, err = e.run("", "history", "--course", "premium")
	if err != nil || !strings.Contains(out, "no results") {
		t.Fatalf("course filter out=%s err=%v", out, err)
	}
	if _, _, err := e.run("", "history", "--course", "deluxe"); err == nil {
		t.Fatalf("unknown course should fail")
	}
}

func TestTestCommand(t *testing.T) {
	e := newEnv(t, map[string]string{"a.png": fullScreen})
	out, _, err := e.run("", "test", e.path("a.png"))
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	if !strings.Contains(out, "[fake] 抽出されたテキスト") || !strings.Contains(out, `"result": -1840`) {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestConfigInit(t *testing.T) {
	e := newEnv(t, nil)
	if _, _, err := e.run("", "config", "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(filepath.Join(e.dir, "config", "sushida", "config.toml")); err != nil {
		t.Fatalf("template missing: %v", err)
	}
}
