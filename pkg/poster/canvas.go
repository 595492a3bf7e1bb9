package poster

// Canvas receives positioned page content and serializes it. Coordinates are
// PDF points with the origin at the bottom-left corner of the page.
type Canvas interface {
	AddPage(widthPt, heightPt float64) error
	PlaceImage(jpeg []byte, leftPt, bottomPt, widthPt, heightPt float64) error
	PlaceText(text string, sizePt, leftPt, baselinePt float64) error
	TextWidth(text string, sizePt float64) (float64, error)
	StrokeRect(leftPt, bottomPt, widthPt, heightPt float64) error
	Save(path string) error
	Close() error
}

// CanvasFactory opens a new, empty document.
type CanvasFactory func() (Canvas, error)
