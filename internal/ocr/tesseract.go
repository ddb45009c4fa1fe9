package ocr

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const defaultDPI = 300

// Tesseract performs OCR with local CLI tools: pdftoppm (poppler) rasterizes
// pages to PNG and tesseract reads them back as text.
type Tesseract struct {
	pdftoppmPath  string
	tesseractPath string
	dpi           int
}

// NewTesseract creates a Tesseract engine. Empty paths fall back to the bare
// binary names; a non-positive dpi falls back to 300.
func NewTesseract(pdftoppmPath, tesseractPath string, dpi int) *Tesseract {
	if pdftoppmPath == "" {
		pdftoppmPath = "pdftoppm"
	}
	if tesseractPath == "" {
		tesseractPath = "tesseract"
	}
	if dpi <= 0 {
		dpi = defaultDPI
	}
	return &Tesseract{
		pdftoppmPath:  pdftoppmPath,
		tesseractPath: tesseractPath,
		dpi:           dpi,
	}
}

// PageText rasterizes a single page (1-based) and runs OCR on it.
func (t *Tesseract) PageText(ctx context.Context, pdfPath string, page int) (string, error) {
	images, cleanup, err := t.render(ctx, pdfPath, page)
	if err != nil {
		return "", err
	}
	defer cleanup()

	if len(images) != 1 {
		return "", eris.Errorf("ocr: expected one rendered image for page %d of %s, got %d", page, pdfPath, len(images))
	}

	return t.imageText(ctx, images[0])
}

// DocumentText rasterizes every page and runs OCR on each, concatenating the
// results in page order. A page whose OCR fails contributes no text.
func (t *Tesseract) DocumentText(ctx context.Context, pdfPath string) (string, error) {
	images, cleanup, err := t.render(ctx, pdfPath, 0)
	if err != nil {
		return "", err
	}
	defer cleanup()

	var parts []string
	for i, img := range images {
		text, err := t.imageText(ctx, img)
		if err != nil {
			if ctx.Err() != nil {
				return "", err
			}
			zap.L().Warn("ocr: page ocr failed, skipping",
				zap.String("pdf", pdfPath),
				zap.Int("page", i+1),
				zap.Error(err),
			)
			continue
		}
		if text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, "\n"), nil
}

// render rasterizes pages to PNGs in a temp dir. page 0 means all pages.
// The returned cleanup removes the temp dir and must always be called.
func (t *Tesseract) render(ctx context.Context, pdfPath string, page int) ([]string, func(), error) {
	tmpDir, err := os.MkdirTemp("", "papermeta-ocr-*")
	if err != nil {
		return nil, func() {}, eris.Wrap(err, "ocr: create temp dir")
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	prefix := filepath.Join(tmpDir, "page")
	args := []string{"-png", "-r", strconv.Itoa(t.dpi)}
	if page > 0 {
		args = append(args, "-f", strconv.Itoa(page), "-l", strconv.Itoa(page))
	}
	args = append(args, pdfPath, prefix)

	cmd := exec.CommandContext(ctx, t.pdftoppmPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		cleanup()
		return nil, func() {}, eris.Wrapf(err, "ocr: pdftoppm failed for %s: %s", pdfPath, stderr.String())
	}

	images, err := filepath.Glob(prefix + "*")
	if err != nil || len(images) == 0 {
		cleanup()
		return nil, func() {}, eris.Errorf("ocr: pdftoppm produced no images for %s", pdfPath)
	}
	sortByPageNumber(images)

	return images, cleanup, nil
}

// imageText runs tesseract on one image, writing text to stdout.
func (t *Tesseract) imageText(ctx context.Context, imagePath string) (string, error) {
	cmd := exec.CommandContext(ctx, t.tesseractPath, imagePath, "stdout", "-l", "eng", "--psm", "3")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "ocr: tesseract failed for %s: %s", imagePath, stderr.String())
	}

	return strings.TrimSpace(stdout.String()), nil
}

var pageNumRe = regexp.MustCompile(`(\d+)\.[a-z]+$`)

// sortByPageNumber orders rendered images by the page number pdftoppm embeds
// in the filename. Lexical order is wrong once page counts cross a digit
// boundary without zero padding.
func sortByPageNumber(files []string) {
	sort.Slice(files, func(i, j int) bool {
		return pageNum(files[i]) < pageNum(files[j])
	})
}

func pageNum(path string) int {
	m := pageNumRe.FindStringSubmatch(filepath.Base(path))
	if len(m) < 2 {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}
