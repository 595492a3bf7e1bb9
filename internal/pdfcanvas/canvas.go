// Package pdfcanvas builds poster PDFs with PDFium running in WebAssembly.
//
// Coordinates are PDF points with the origin at the bottom-left corner of
// the page, as in PDFium itself.
package pdfcanvas

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/renameio"
	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/enums"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/structs"
	"github.com/klippa-app/go-pdfium/webassembly"
)

// DefaultFont is one of the 14 standard PDF fonts, so nothing is embedded.
const DefaultFont = "Times-Roman"

var errNoPage = errors.New("no page added")

// Engine owns the PDFium instance pool.
type Engine struct {
	pool pdfium.Pool
	font string
}

// NewEngine starts PDFium. Close must be called when done.
func NewEngine() (*Engine, error) {
	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  1,
		MaxTotal: 2,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PDFium: %w", err)
	}

	return &Engine{pool: pool, font: DefaultFont}, nil
}

// Close shuts the instance pool down.
func (e *Engine) Close() error {
	if e.pool == nil {
		return nil
	}
	return e.pool.Close()
}

// Document is a PDF under construction. It is not safe for concurrent use.
type Document struct {
	instance pdfium.Pdfium
	doc      references.FPDF_DOCUMENT
	page     *references.FPDF_PAGE
	pages    int
	font     string
}

// NewDocument creates an empty document on its own PDFium instance.
func (e *Engine) NewDocument() (*Document, error) {
	instance, err := e.pool.GetInstance(time.Second * 30)
	if err != nil {
		return nil, fmt.Errorf("failed to get PDFium instance: %w", err)
	}

	created, err := instance.FPDF_CreateNewDocument(&requests.FPDF_CreateNewDocument{})
	if err != nil {
		instance.Close()
		return nil, fmt.Errorf("failed to create PDF document: %w", err)
	}

	return &Document{
		instance: instance,
		doc:      created.Document,
		font:     e.font,
	}, nil
}

// AddPage appends a page and makes it the target of subsequent drawing.
func (d *Document) AddPage(widthPt, heightPt float64) error {
	if err := d.finishPage(); err != nil {
		return err
	}

	resp, err := d.instance.FPDFPage_New(&requests.FPDFPage_New{
		Document:  d.doc,
		PageIndex: d.pages,
		Width:     widthPt,
		Height:    heightPt,
	})
	if err != nil {
		return fmt.Errorf("failed to add page: %w", err)
	}

	page := resp.Page
	d.page = &page
	d.pages++
	return nil
}

func (d *Document) pageRef() (requests.Page, error) {
	if d.page == nil {
		return requests.Page{}, errNoPage
	}
	return requests.Page{ByReference: d.page}, nil
}

// PlaceImage draws a JPEG stretched over the given rectangle.
func (d *Document) PlaceImage(jpeg []byte, leftPt, bottomPt, widthPt, heightPt float64) error {
	page, err := d.pageRef()
	if err != nil {
		return err
	}

	obj, err := d.instance.FPDFPageObj_NewImageObj(&requests.FPDFPageObj_NewImageObj{
		Document: d.doc,
	})
	if err != nil {
		return fmt.Errorf("failed to create image object: %w", err)
	}

	// no page list: the object is inserted below, and passing one traps in
	// the webassembly build
	_, err = d.instance.FPDFImageObj_LoadJpegFileInline(&requests.FPDFImageObj_LoadJpegFileInline{
		ImageObject: obj.PageObject,
		FileData:    jpeg,
	})
	if err != nil {
		return fmt.Errorf("failed to load JPEG: %w", err)
	}

	// an image object is a unit square until scaled
	_, err = d.instance.FPDFImageObj_SetMatrix(&requests.FPDFImageObj_SetMatrix{
		ImageObject: obj.PageObject,
		Transform: structs.FPDF_FS_MATRIX{
			A: float32(widthPt),
			D: float32(heightPt),
			E: float32(leftPt),
			F: float32(bottomPt),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to position image: %w", err)
	}

	return d.insert(page, obj.PageObject)
}

// PlaceText draws text with its baseline starting at (leftPt, baselinePt).
func (d *Document) PlaceText(text string, sizePt, leftPt, baselinePt float64) error {
	page, err := d.pageRef()
	if err != nil {
		return err
	}

	obj, err := d.newText(text, sizePt)
	if err != nil {
		return err
	}

	_, err = d.instance.FPDFPageObj_Transform(&requests.FPDFPageObj_Transform{
		PageObject: obj,
		Transform: structs.FPDF_FS_MATRIX{
			A: 1,
			D: 1,
			E: float32(leftPt),
			F: float32(baselinePt),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to position text: %w", err)
	}

	return d.insert(page, obj)
}

// TextWidth measures text set in the document font at sizePt.
func (d *Document) TextWidth(text string, sizePt float64) (float64, error) {
	obj, err := d.newText(text, sizePt)
	if err != nil {
		return 0, err
	}
	defer d.instance.FPDFPageObj_Destroy(&requests.FPDFPageObj_Destroy{PageObject: obj})

	bounds, err := d.instance.FPDFPageObj_GetBounds(&requests.FPDFPageObj_GetBounds{
		PageObject: obj,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to measure text: %w", err)
	}
	return float64(bounds.Right - bounds.Left), nil
}

func (d *Document) newText(text string, sizePt float64) (references.FPDF_PAGEOBJECT, error) {
	obj, err := d.instance.FPDFPageObj_NewTextObj(&requests.FPDFPageObj_NewTextObj{
		Document: d.doc,
		Font:     d.font,
		FontSize: float32(sizePt),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create text object: %w", err)
	}

	_, err = d.instance.FPDFText_SetText(&requests.FPDFText_SetText{
		PageObject: obj.PageObject,
		Text:       text,
	})
	if err != nil {
		d.instance.FPDFPageObj_Destroy(&requests.FPDFPageObj_Destroy{PageObject: obj.PageObject})
		return "", fmt.Errorf("failed to set text: %w", err)
	}
	return obj.PageObject, nil
}

// StrokeRect outlines a rectangle with a thin red line.
func (d *Document) StrokeRect(leftPt, bottomPt, widthPt, heightPt float64) error {
	page, err := d.pageRef()
	if err != nil {
		return err
	}

	rect, err := d.instance.FPDFPageObj_CreateNewRect(&requests.FPDFPageObj_CreateNewRect{
		X: float32(leftPt),
		Y: float32(bottomPt),
		W: float32(widthPt),
		H: float32(heightPt),
	})
	if err != nil {
		return fmt.Errorf("failed to create rectangle: %w", err)
	}

	if _, err := d.instance.FPDFPageObj_SetStrokeColor(&requests.FPDFPageObj_SetStrokeColor{
		PageObject:  rect.PageObject,
		StrokeColor: structs.FPDF_COLOR{R: 255, G: 0, B: 0, A: 255},
	}); err != nil {
		return fmt.Errorf("failed to set stroke colour: %w", err)
	}
	if _, err := d.instance.FPDFPageObj_SetStrokeWidth(&requests.FPDFPageObj_SetStrokeWidth{
		PageObject:  rect.PageObject,
		StrokeWidth: 0.5,
	}); err != nil {
		return fmt.Errorf("failed to set stroke width: %w", err)
	}
	if _, err := d.instance.FPDFPath_SetDrawMode(&requests.FPDFPath_SetDrawMode{
		PageObject: rect.PageObject,
		FillMode:   enums.FPDF_FILLMODE_NONE,
		Stroke:     true,
	}); err != nil {
		return fmt.Errorf("failed to set draw mode: %w", err)
	}

	return d.insert(page, rect.PageObject)
}

func (d *Document) insert(page requests.Page, obj references.FPDF_PAGEOBJECT) error {
	_, err := d.instance.FPDFPage_InsertObject(&requests.FPDFPage_InsertObject{
		Page:       page,
		PageObject: obj,
	})
	if err != nil {
		return fmt.Errorf("failed to insert page object: %w", err)
	}
	return nil
}

// finishPage writes the content stream of the current page and releases it.
func (d *Document) finishPage() error {
	if d.page == nil {
		return nil
	}

	page := requests.Page{ByReference: d.page}
	if _, err := d.instance.FPDFPage_GenerateContent(&requests.FPDFPage_GenerateContent{Page: page}); err != nil {
		return fmt.Errorf("failed to generate page content: %w", err)
	}
	if _, err := d.instance.FPDF_ClosePage(&requests.FPDF_ClosePage{Page: *d.page}); err != nil {
		return fmt.Errorf("failed to close page: %w", err)
	}
	d.page = nil
	return nil
}

// Save writes the document to path. The file is replaced atomically so a
// failed run never leaves a truncated poster behind.
func (d *Document) Save(path string) error {
	if err := d.finishPage(); err != nil {
		return err
	}
	if d.pages == 0 {
		return errNoPage
	}

	pending, err := renameio.TempFile("", path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer pending.Cleanup()

	if _, err := d.instance.FPDF_SaveAsCopy(&requests.FPDF_SaveAsCopy{
		Document:   d.doc,
		FileWriter: pending,
	}); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// Close releases the document and its PDFium instance.
func (d *Document) Close() error {
	if d.instance == nil {
		return nil
	}

	if d.page != nil {
		d.instance.FPDF_ClosePage(&requests.FPDF_ClosePage{Page: *d.page})
		d.page = nil
	}
	d.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: d.doc})
	err := d.instance.Close()
	d.instance = nil
	return err
}
