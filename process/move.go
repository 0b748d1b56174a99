package main

import (
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// maxProcessedBytes is the size budget of an archived screenshot.
const maxProcessedBytes = 1_000_000

// moveToProcessed moves a recorded screenshot into processedDir, downscaling it when over budget.
// It attempts an atomic rename and falls back to copy+remove when necessary.
func moveToProcessed(srcFullPath, processedDir, name string) error {
	if err := os.MkdirAll(processedDir, 0o755); err != nil {
		return err
	}
	dst := filepath.Join(processedDir, name)

	fi, err := os.Stat(srcFullPath)
	if err != nil {
		return err
	}
	if fi.Size() <= maxProcessedBytes {
		return renameOrCopy(srcFullPath, dst)
	}
	img, err := imaging.Open(srcFullPath)
	if err != nil { // cannot decode, move as is
		return renameOrCopy(srcFullPath, dst)
	}
	// size roughly scales with area
	scale := math.Sqrt(float64(maxProcessedBytes) / float64(fi.Size()))
	scale = math.Min(scale, 0.95)
	scale = math.Max(scale, 0.1)
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	newW := int(math.Max(1, math.Round(float64(w)*scale)))
	newH := int(math.Max(1, math.Round(float64(h)*scale)))
	resized := imaging.Resize(img, newW, newH, imaging.Lanczos)
	if err := imaging.Save(resized, dst); err != nil {
		return renameOrCopy(srcFullPath, dst)
	}
	_ = os.Remove(srcFullPath)
	// one more uniform 80% pass if still over budget
	if fi2, err := os.Stat(dst); err == nil && fi2.Size() > maxProcessedBytes {
		if img2, err := imaging.Open(dst); err == nil {
			img2 = imaging.Resize(img2, int(float64(img2.Bounds().Dx())*0.8), 0, imaging.Lanczos)
			_ = imaging.Save(img2, dst)
		}
	}
	return nil
}

func renameOrCopy(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	return copyRemove(src, dst)
}

func copyRemove(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
