package poster

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/alde/trombinoscope/internal/logging"
	"github.com/alde/trombinoscope/internal/metrics"
	"github.com/alde/trombinoscope/internal/worker"
	"github.com/alde/trombinoscope/pkg/cache"
	"github.com/alde/trombinoscope/pkg/codec"
	"github.com/alde/trombinoscope/pkg/geometry"
	"github.com/alde/trombinoscope/pkg/planner"
	"github.com/alde/trombinoscope/pkg/progress"
)

// PlaceholderIdentity is the identity of the image used for entries that
// cannot be decoded.
const PlaceholderIdentity = "placeholder"

// placeholder dimensions when none is configured, a 3:4 portrait
const (
	defaultPlaceholderWidth  = 300
	defaultPlaceholderHeight = 400
)

// CellPlacement is everything needed to draw one image on the page.
type CellPlacement struct {
	Index  int
	Row    int
	Column int
	Image  *codec.SourceImage // the image actually drawn, possibly the placeholder
	Data   []byte             // JPEG bytes

	CellLeftPt   float64
	CellBottomPt float64
	CellWidthPt  float64
	CellHeightPt float64

	RenderLeftPt   float64
	RenderBottomPt float64
	RenderWidthPt  float64
	RenderHeightPt float64

	Caption         string
	CaptionOffsetPt float64 // distance from the cell bottom down to the baseline

	Placeholder bool
	CacheHit    bool
	DPI         int // effective resolution of Data at the rendered size
}

// Engine lays images out on a grid, running each through the transform
// cache.
type Engine struct {
	cache   *cache.Cache
	workers int

	placeholderOnce sync.Once
	placeholder     *codec.SourceImage
	placeholderErr  error
}

// NewEngine creates a layout engine. A nil placeholder is replaced by a
// generated grey image on first use. With workers > 1 images are transformed
// concurrently.
func NewEngine(c *cache.Cache, placeholder *codec.SourceImage, workers int) *Engine {
	e := &Engine{
		cache:   c,
		workers: workers,
	}
	if placeholder != nil {
		e.placeholderOnce.Do(func() {
			e.placeholder = placeholder
		})
	}
	return e
}

func (e *Engine) placeholderImage() (*codec.SourceImage, error) {
	e.placeholderOnce.Do(func() {
		data, err := codec.Placeholder(defaultPlaceholderWidth, defaultPlaceholderHeight)
		if err != nil {
			e.placeholderErr = err
			return
		}
		e.placeholder, e.placeholderErr = codec.NewSourceImage(PlaceholderIdentity, data)
	})
	return e.placeholder, e.placeholderErr
}

// Layout places images in row-major order on grid and returns one placement
// per image, in input order.
func (e *Engine) Layout(ctx context.Context, images []*codec.SourceImage, grid geometry.GridSpec, page geometry.PageGeometry, cfg RenderConfig) ([]CellPlacement, error) {
	return e.LayoutWithProgress(ctx, images, grid, page, cfg, nil)
}

// LayoutWithProgress is Layout reporting each placed image to tracker.
func (e *Engine) LayoutWithProgress(ctx context.Context, images []*codec.SourceImage, grid geometry.GridSpec, page geometry.PageGeometry, cfg RenderConfig, tracker *progress.Tracker) ([]CellPlacement, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if grid.Cells() < len(images) {
		return nil, fmt.Errorf("%w: %s grid cannot hold %d images", geometry.ErrInvalidGrid, grid, len(images))
	}
	cell, err := page.Cell(grid)
	if err != nil {
		return nil, err
	}

	placements := make([]CellPlacement, len(images))

	if e.workers <= 1 {
		for i, img := range images {
			placement, err := e.place(ctx, i, img, grid, page, cell, cfg)
			if err != nil {
				return nil, err
			}
			placements[i] = placement
			if tracker != nil {
				tracker.Done(img.Identity)
			}
		}
		return placements, nil
	}

	jobs := make([]worker.Job, len(images))
	for i, img := range images {
		jobs[i] = &placeJob{
			engine: e, index: i, image: img,
			grid: grid, page: page, cell: cell, cfg: cfg,
			out: placements,
		}
	}

	var errs []error
	for _, result := range worker.Run(ctx, e.workers, jobs, tracker) {
		if result.Error != nil {
			errs = append(errs, result.Error)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return placements, nil
}

// placeJob writes its placement into out[index], so results come back in
// input order whatever order the workers finish in.
type placeJob struct {
	engine *Engine
	index  int
	image  *codec.SourceImage
	grid   geometry.GridSpec
	page   geometry.PageGeometry
	cell   geometry.CellGeometry
	cfg    RenderConfig
	out    []CellPlacement
}

func (j *placeJob) Process(ctx context.Context) error {
	placement, err := j.engine.place(ctx, j.index, j.image, j.grid, j.page, j.cell, j.cfg)
	if err != nil {
		return err
	}
	j.out[j.index] = placement
	return nil
}

func (j *placeJob) ID() string {
	return strconv.Itoa(j.index) + ":" + j.image.Identity
}

func (e *Engine) place(ctx context.Context, index int, img *codec.SourceImage, grid geometry.GridSpec, page geometry.PageGeometry, cell geometry.CellGeometry, cfg RenderConfig) (CellPlacement, error) {
	row, column := grid.Position(index)
	left, bottom := page.CellOrigin(cell, row, column)

	p := CellPlacement{
		Index:           index,
		Row:             row,
		Column:          column,
		Image:           img,
		CellLeftPt:      left,
		CellBottomPt:    bottom,
		CellWidthPt:     cell.WidthPt,
		CellHeightPt:    cell.HeightPt,
		Caption:         Caption(img.Identity),
		CaptionOffsetPt: page.InnerVMarginPt / 2,
	}

	src := img
	if !src.Decodable() {
		logging.Warn("Cannot read %s, using placeholder", img.Identity)
		placeholder, err := e.placeholderImage()
		if err != nil {
			return CellPlacement{}, fmt.Errorf("failed to prepare placeholder: %w", err)
		}
		src = placeholder
		p.Placeholder = true
	}

	err := e.render(ctx, &p, src, cell, cfg)
	if errors.Is(err, codec.ErrDecode) && !p.Placeholder {
		logging.Warn("Cannot decode %s, using placeholder: %v", img.Identity, err)
		placeholder, perr := e.placeholderImage()
		if perr != nil {
			return CellPlacement{}, fmt.Errorf("failed to prepare placeholder: %w", perr)
		}
		p.Placeholder = true
		err = e.render(ctx, &p, placeholder, cell, cfg)
	}
	if err != nil {
		if errors.Is(err, cache.ErrEncode) {
			logging.Error("Cannot encode %s: %v", img.Identity, err)
		}
		return CellPlacement{}, fmt.Errorf("image %d (%s): %w", index+1, img.Identity, err)
	}

	if p.Placeholder {
		metrics.PlaceholdersTotal.Inc()
	}
	return p, nil
}

// render fills the image, geometry and resolution fields of p for src.
func (e *Engine) render(ctx context.Context, p *CellPlacement, src *codec.SourceImage, cell geometry.CellGeometry, cfg RenderConfig) error {
	if !src.Decodable() {
		return fmt.Errorf("%w: %s has no readable header", codec.ErrDecode, src.Identity)
	}

	var crop planner.CropRectangle
	switch cfg.Mode {
	case ModeFit:
		crop = planner.CropRectangle{Width: src.Width, Height: src.Height}
		p.RenderLeftPt, p.RenderBottomPt, p.RenderWidthPt, p.RenderHeightPt =
			fitInside(src.Width, src.Height, p.CellLeftPt, p.CellBottomPt, cell)
	default:
		crop = planner.PlanCrop(src.Width, src.Height, cell.Ratio())
		p.RenderLeftPt, p.RenderBottomPt = p.CellLeftPt, p.CellBottomPt
		p.RenderWidthPt, p.RenderHeightPt = cell.WidthPt, cell.HeightPt
	}

	data, res, err := e.cache.GetOrCompute(ctx, src, crop, cfg.MaxDPI, p.RenderWidthPt)
	if err != nil {
		return err
	}

	p.Image = src
	p.Data = data
	p.CacheHit = res.Hit
	p.DPI = res.EffectiveDPI(cfg.MaxDPI)
	logging.Debug("Placed %s in cell (%d,%d) at %d dpi", src.Identity, p.Row, p.Column, p.DPI)
	return nil
}

// fitInside scales a width×height image to the cell width, or to the cell
// height when that would overflow, centering it horizontally in the latter
// case. The image sits on the cell bottom.
func fitInside(width, height int, cellLeft, cellBottom float64, cell geometry.CellGeometry) (left, bottom, w, h float64) {
	ratio := float64(height) / float64(width)

	w = cell.WidthPt
	h = w * ratio
	left = cellLeft
	if h > cell.HeightPt {
		h = cell.HeightPt
		w = h / ratio
		left = cellLeft + (cell.WidthPt-w)/2
	}
	return left, cellBottom, w, h
}

// Emit draws placements on a new page of canvas.
func Emit(canvas Canvas, placements []CellPlacement, page geometry.PageGeometry, cfg RenderConfig) error {
	if err := canvas.AddPage(page.WidthPt, page.HeightPt); err != nil {
		return fmt.Errorf("failed to add page: %w", err)
	}

	for _, p := range placements {
		if err := canvas.PlaceImage(p.Data, p.RenderLeftPt, p.RenderBottomPt, p.RenderWidthPt, p.RenderHeightPt); err != nil {
			return fmt.Errorf("failed to place %s: %w", p.Image.Identity, err)
		}

		if cfg.Captions && p.Caption != "" {
			if err := emitCaption(canvas, p, cfg.captionSize()); err != nil {
				return err
			}
		}

		if cfg.Debug {
			if err := emitDebug(canvas, p); err != nil {
				return err
			}
		}
	}
	return nil
}

func emitCaption(canvas Canvas, p CellPlacement, size float64) error {
	width, err := canvas.TextWidth(p.Caption, size)
	if err != nil {
		return fmt.Errorf("failed to measure caption %q: %w", p.Caption, err)
	}

	left := p.CellLeftPt + (p.CellWidthPt-width)/2
	baseline := p.CellBottomPt - p.CaptionOffsetPt
	if err := canvas.PlaceText(p.Caption, size, left, baseline); err != nil {
		return fmt.Errorf("failed to place caption %q: %w", p.Caption, err)
	}
	return nil
}

// emitDebug outlines the cell and prints its 1-based index in the top-left
// corner.
func emitDebug(canvas Canvas, p CellPlacement) error {
	if err := canvas.StrokeRect(p.CellLeftPt, p.CellBottomPt, p.CellWidthPt, p.CellHeightPt); err != nil {
		return fmt.Errorf("failed to outline cell %d: %w", p.Index+1, err)
	}

	top := p.CellBottomPt + p.CellHeightPt
	label := strconv.Itoa(p.Index + 1)
	if err := canvas.PlaceText(label, debugLabelSizePt, p.CellLeftPt+1, top-debugLabelSizePt); err != nil {
		return fmt.Errorf("failed to label cell %d: %w", p.Index+1, err)
	}
	return nil
}
