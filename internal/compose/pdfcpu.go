package compose

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog/log"

	"github.com/local/booklets/internal/paper"
)

// PDFComposer composes with pdfcpu: the source gets one trailing blank page,
// slots are collected in output order, laid out two-up on landscape paper,
// and back sides are turned when the plan asks for it.
type PDFComposer struct {
	workDir string
}

// NewPDFComposer returns a composer that keeps intermediate files under
// workDir (os.TempDir() when empty).
func NewPDFComposer(workDir string) *PDFComposer {
	return &PDFComposer{workDir: workDir}
}

func (c *PDFComposer) Compose(ctx context.Context, job Job) (Result, error) {
	start := time.Now()
	conf := model.NewDefaultConfiguration()

	n, err := api.PageCountFile(job.Input)
	if err != nil {
		return Result{}, fmt.Errorf("page count: %w", err)
	}
	if n == 0 {
		return Result{}, ErrEmptyDocument
	}
	if hi := maxPageIndex(job.Sides); hi >= n {
		return Result{}, fmt.Errorf("plan references page %d, document has %d", hi+1, n)
	}
	if len(job.Sides) == 0 {
		return Result{}, fmt.Errorf("empty plan")
	}

	in := paper.A4
	if dims, err := api.PageDimsFile(job.Input); err == nil && len(dims) > 0 {
		in = paper.Size{Name: "source", Width: dims[0].Width, Height: dims[0].Height}
	} else if err != nil {
		log.Warn().Err(err).Str("file", job.Input).Msg("page dimensions unavailable; assuming A4")
	}
	scale := paper.TwoUpScale(in, job.Paper)

	dir, err := os.MkdirTemp(c.workDir, "booklet-work-")
	if err != nil {
		return Result{}, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	padded := filepath.Join(dir, "padded.pdf")
	if err := api.InsertPagesFile(job.Input, padded, []string{strconv.Itoa(n)}, false, conf); err != nil {
		return Result{}, fmt.Errorf("append blank page: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	ordered := filepath.Join(dir, "ordered.pdf")
	if err := api.CollectFile(padded, ordered, slotSelection(job.Sides, n+1), conf); err != nil {
		return Result{}, fmt.Errorf("collect pages: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	nup, err := api.PDFNUpConfig(2, fmt.Sprintf("formsize:%s, border:off, margin:0", job.Paper.Landscape().Name), conf)
	if err != nil {
		return Result{}, fmt.Errorf("n-up config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(job.Output), 0o755); err != nil {
		return Result{}, fmt.Errorf("create output dir: %w", err)
	}
	if err := api.NUpFile([]string{ordered}, job.Output, nil, nup, conf); err != nil {
		return Result{}, fmt.Errorf("two-up layout: %w", err)
	}

	rot := rotationSelection(job.Sides)
	if len(rot) > 0 {
		if err := api.RotateFile(job.Output, "", 180, rot, conf); err != nil {
			return Result{}, fmt.Errorf("rotate back sides: %w", err)
		}
	}

	res := Result{
		Output:  job.Output,
		Sides:   len(job.Sides),
		Sheets:  (len(job.Sides) + 1) / 2,
		Rotated: len(rot),
		Scale:   scale,
	}
	log.Info().
		Str("input", job.Input).
		Str("output", job.Output).
		Str("paper", job.Paper.Name).
		Int("source_pages", n).
		Int("sides", res.Sides).
		Int("rotated", res.Rotated).
		Float64("scale", scale).
		Dur("took", time.Since(start)).
		Msg("booklet composed")
	return res, nil
}
