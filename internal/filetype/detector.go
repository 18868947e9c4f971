package filetype

import (
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// ErrNotPDF is returned when an input is not a PDF document.
var ErrNotPDF = errors.New("not a PDF document")

const pdfMIME = "application/pdf"

// FileTypeInfo contains detected file type information
type FileTypeInfo struct {
	MIMEType    string
	Extension   string
	Supported   bool
	Description string
}

// Detector handles file type detection using magic bytes
type Detector struct{}

// New creates a new file type detector
func New() *Detector {
	return &Detector{}
}

// Detect detects the actual file type using magic bytes, not filename
func (d *Detector) Detect(filePath string) (*FileTypeInfo, error) {
	mtype, err := mimetype.DetectFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}
	log.Debug().Str("mime", mtype.String()).Str("ext", mtype.Extension()).Str("file", filePath).Msg("detected file type")
	return classify(mtype), nil
}

// DetectReader detects the type of the content read from r.
func (d *Detector) DetectReader(r io.Reader) (*FileTypeInfo, error) {
	mtype, err := mimetype.DetectReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}
	return classify(mtype), nil
}

// RequirePDF returns ErrNotPDF unless the file at filePath is a PDF.
func (d *Detector) RequirePDF(filePath string) error {
	info, err := d.Detect(filePath)
	if err != nil {
		return err
	}
	if !info.Supported {
		return fmt.Errorf("%w: %s", ErrNotPDF, info.Description)
	}
	return nil
}

// classify marks PDF as the only supported input; booklets are imposed from
// page content, which other formats do not carry.
func classify(mtype *mimetype.MIME) *FileTypeInfo {
	info := &FileTypeInfo{
		MIMEType:  mtype.String(),
		Extension: mtype.Extension(),
	}
	if mtype.Is(pdfMIME) {
		info.Supported = true
		info.Description = "PDF document"
	} else {
		info.Description = fmt.Sprintf("Unsupported file type: %s", info.MIMEType)
	}
	return info
}
