package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"sushida/pkg/ocr"

	_ "github.com/lib/pq"
)

// candidate is a stored score worth another OCR attempt.
type candidate struct {
	ID        int64
	FileName  string
	StorePath sql.NullString
	Gain      int
	Valid     bool
}

const selectCandidates = `SELECT s.id, s.file_name, sh.store_path, s.gain, s.valid
	FROM scores s
	JOIN users u ON u.id = s.user_id
	LEFT JOIN screenshots sh ON sh.user_id = s.user_id AND sh.file_name = s.file_name
	WHERE u.username = $1 AND (s.valid = false OR s.gain = 0)
	ORDER BY s.id`

const updateScore = `UPDATE scores
	SET course=$1, net=$2, paid=$3, gain=$4, correct=$5, miss=$6, average_tps=$7, valid=$8, raw_text=$9, updated_at=now()
	WHERE id=$10`

func main() {
	username := flag.String("user", "admin", "owner of the scores to retry")
	dir := flag.String("dir", "public/processed", "base dir for files when no store path resolves")
	dry := flag.Bool("dry-run", false, "print what would change without updating")
	flag.Parse()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	cands, err := loadCandidates(db, *username)
	if err != nil {
		log.Fatalf("query: %v", err)
	}
	log.Printf("reparse candidates user=%s count=%d", *username, len(cands))

	acq := ocr.NewAcquirer()
	acq.Preprocess = ocr.PreprocessAggressive
	ctx := context.Background()
	updated := 0
	for _, c := range cands {
		path := resolvePath(c, *dir)
		ext, err := acq.ExtractScore(ctx, path)
		if err != nil {
			log.Printf("ocr id=%d file=%s: %v", c.ID, path, err)
			continue
		}
		if !improves(c, ext) {
			log.Printf("no improvement id=%d file=%s gain=%d valid=%t", c.ID, c.FileName, ext.Result.Detail.Gain, ext.Valid)
			continue
		}
		if !*dry {
			r := ext.Result
			if _, err := db.Exec(updateScore, string(r.Course), r.Net, r.Detail.Paid, r.Detail.Gain,
				r.Typing.Correct, r.Typing.Miss, r.Typing.AverageTPS, ext.Valid, ext.Text, c.ID); err != nil {
				log.Printf("update id=%d: %v", c.ID, err)
				continue
			}
		}
		updated++
		fmt.Printf("updated id=%d file=%s course=%s net=%d gain=%d valid=%t pass=%s\n",
			c.ID, c.FileName, ext.Result.Course, ext.Result.Net, ext.Result.Detail.Gain, ext.Valid, ext.Pass)
	}
	log.Printf("reparse done updated=%d of %d (dry-run=%t)", updated, len(cands), *dry)
}

func loadCandidates(db *sql.DB, username string) ([]candidate, error) {
	rows, err := db.Query(selectCandidates, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []candidate
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.ID, &c.FileName, &c.StorePath, &c.Gain, &c.Valid); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// resolvePath prefers the recorded store path when the file is still there.
func resolvePath(c candidate, dir string) string {
	if c.StorePath.Valid && c.StorePath.String != "" {
		if _, err := os.Stat(c.StorePath.String); err == nil {
			return c.StorePath.String
		}
	}
	return filepath.Join(dir, c.FileName)
}

// improves reports whether a new reading is worth writing back: it must
// validate where the old one did not, or find a gain the old one missed.
func improves(old candidate, ext ocr.Extraction) bool {
	if ext.Valid && !old.Valid {
		return true
	}
	return old.Gain == 0 && ext.Result.Detail.Gain > 0 && (ext.Valid || !old.Valid)
}
