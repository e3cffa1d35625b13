package parser

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog/log"

	"multimodal-rag/internal/models"
)

// pageSource is an opened PDF, addressed by 1-based page number.
type pageSource interface {
	NumPage() int
	PageText(pageNo int) (string, error)
	PageImages(pageNo int) ([]models.ImageBlob, error)
	Close() error
}

// PDFExtractor yields one unit per page that has text or images.
type PDFExtractor struct {
	open func(path string) (pageSource, error)
}

func NewPDFExtractor() *PDFExtractor {
	api.DisableConfigDir()
	return &PDFExtractor{open: openPDF}
}

func (e *PDFExtractor) Extract(ctx context.Context, filePath string) ([]models.ExtractedUnit, error) {
	name := sourceName(filePath)
	doc, err := e.open(filePath)
	if err != nil {
		return nil, models.WrapError(models.ErrExtraction, "open pdf "+name, err)
	}
	defer doc.Close()

	var units []models.ExtractedUnit
	numPages := doc.NumPage()
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pageText, err := doc.PageText(i)
		if err != nil {
			return nil, models.WrapError(models.ErrExtraction, fmt.Sprintf("read text of %s page %d", name, i), err)
		}

		images, err := doc.PageImages(i)
		if err != nil {
			log.Warn().Err(err).Str("file", name).Int("page", i).Msg("Skipping images of page")
			images = nil
		}

		if strings.TrimSpace(pageText) == "" && len(images) == 0 {
			continue
		}
		units = append(units, models.ExtractedUnit{
			SourceName: name,
			PageNo:     i,
			Text:       strings.TrimSpace(pageText),
			Images:     images,
		})
	}
	log.Debug().Str("file", name).Int("pages", numPages).Int("units", len(units)).Msg("Extracted PDF")
	return units, nil
}

// pdfDocument reads text with ledongthuc/pdf and raw image streams with
// pdfcpu, both over the same file handle. The pdfcpu context is built on the
// first PageImages call and reused for every later page.
type pdfDocument struct {
	file   *os.File
	reader *pdf.Reader
	conf   *model.Configuration

	images    *model.Context
	imagesErr error
}

func openPDF(path string) (src pageSource, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			_ = f.Close()
			src, err = nil, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	reader, err := pdf.NewReader(f, info.Size())
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.Cmd = model.EXTRACTIMAGES
	return &pdfDocument{file: f, reader: reader, conf: conf}, nil
}

func (d *pdfDocument) NumPage() int {
	return d.reader.NumPage()
}

func (d *pdfDocument) PageText(pageNo int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed page content: %v", r)
		}
	}()

	page := d.reader.Page(pageNo)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

// imageContext reads, validates and optimizes the file for image
// extraction once. A failure is remembered so later pages fail fast.
func (d *pdfDocument) imageContext() (ctx *model.Context, err error) {
	if d.images != nil || d.imagesErr != nil {
		return d.images, d.imagesErr
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf structure: %v", r)
		}
		d.images, d.imagesErr = ctx, err
	}()

	if _, err := d.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind pdf: %w", err)
	}
	ctx, err = api.ReadValidateAndOptimize(d.file, d.conf)
	if err != nil {
		return nil, fmt.Errorf("read pdf for images: %w", err)
	}
	return ctx, nil
}

func (d *pdfDocument) PageImages(pageNo int) (images []models.ImageBlob, err error) {
	ctx, err := d.imageContext()
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			images, err = nil, fmt.Errorf("malformed image stream: %v", r)
		}
	}()

	byObj, err := pdfcpu.ExtractPageImages(ctx, pageNo, false)
	if err != nil {
		return nil, fmt.Errorf("extract images: %w", err)
	}

	// stable order: by object number within the page
	objNrs := make([]int, 0, len(byObj))
	for objNr := range byObj {
		objNrs = append(objNrs, objNr)
	}
	sort.Ints(objNrs)

	for _, objNr := range objNrs {
		img := byObj[objNr]
		if img.Reader == nil {
			continue
		}
		data, err := io.ReadAll(img)
		if err != nil {
			return nil, fmt.Errorf("read image object %d: %w", objNr, err)
		}
		if len(data) == 0 {
			continue
		}
		images = append(images, models.ImageBlob{
			Data:   data,
			PageNo: pageNo,
			Index:  len(images) + 1,
			Ext:    imageExt(img.FileType),
		})
	}
	return images, nil
}

func (d *pdfDocument) Close() error {
	return d.file.Close()
}

func imageExt(fileType string) string {
	ext := strings.TrimPrefix(strings.ToLower(fileType), ".")
	switch ext {
	case "":
		return "png"
	case "jpeg":
		return "jpg"
	case "tiff":
		return "tif"
	}
	return ext
}
