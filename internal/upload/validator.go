package upload

import (
	"encoding/csv"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/advisorlens/advisorlens/internal/config"
	"github.com/advisorlens/advisorlens/internal/ingest"
	"github.com/advisorlens/advisorlens/internal/pkg/errors"
	"github.com/advisorlens/advisorlens/internal/pkg/logger"
)

// RawUpload is an untrusted uploaded file as received from the transport
// layer. It exists only for the duration of validation.
type RawUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

// SanitizedFile is the outcome of a successful validation: the fully buffered
// content plus the sanitized filename downstream storage must use instead of
// the original.
type SanitizedFile struct {
	Filename string
	Content  string
}

// sniffLimit is how many leading bytes feed the magic-number inspection.
const sniffLimit = 2048

// Validator inspects untrusted uploads before any parsing begins. Checks run
// in a fixed order and each may short-circuit with a typed rejection.
type Validator struct {
	cfg config.UploadConfig
	log *logger.Logger
}

// NewValidator creates an upload validator.
func NewValidator(cfg config.UploadConfig, log *logger.Logger) *Validator {
	return &Validator{cfg: cfg, log: log}
}

// Validate runs the full check sequence. Every rejection and the final
// acceptance is security-logged with filename and size, never content.
func (v *Validator) Validate(u RawUpload) (*SanitizedFile, error) {
	if err := v.checkExtension(u.Filename); err != nil {
		return nil, v.reject(u, err)
	}
	if err := v.checkSize(u.Size); err != nil {
		return nil, v.reject(u, err)
	}
	if err := v.checkMIME(u.Data); err != nil {
		return nil, v.reject(u, err)
	}

	content, records, err := v.checkStructure(u.Data)
	if err != nil {
		return nil, v.reject(u, err)
	}
	if err := ingest.ValidateHeader(records[0]); err != nil {
		return nil, v.reject(u, err)
	}
	if err := v.checkCells(records); err != nil {
		return nil, v.reject(u, err)
	}

	v.log.UploadDecision(u.Filename, u.Size, true, "ok")
	return &SanitizedFile{
		Filename: SanitizeFilename(u.Filename),
		Content:  content,
	}, nil
}

func (v *Validator) reject(u RawUpload, err error) error {
	reason := err.Error()
	if appErr, ok := err.(*errors.AppError); ok {
		reason = appErr.Code
	}
	v.log.UploadDecision(u.Filename, u.Size, false, reason)
	return err
}

// checkExtension enforces the case-insensitive extension allow-list.
func (v *Validator) checkExtension(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range v.cfg.AllowedExtensions {
		if ext == strings.ToLower(allowed) {
			return nil
		}
	}
	return errors.InvalidFileType(ext)
}

// checkSize enforces a positive size within the configured ceiling. The
// declared size is checked so an oversized file is rejected before its
// content is inspected.
func (v *Validator) checkSize(size int64) error {
	if size <= 0 {
		return errors.EmptyFile()
	}
	if size > v.cfg.MaxUploadSize {
		return errors.FileTooLarge(size, v.cfg.MaxUploadSize)
	}
	return nil
}

// checkMIME sniffs the actual content type from the leading bytes and matches
// it against the allow-list. The declared content type is never trusted.
func (v *Validator) checkMIME(data []byte) error {
	head := data
	if len(head) > sniffLimit {
		head = head[:sniffLimit]
	}

	detected := mimetype.Detect(head)
	for _, allowed := range v.cfg.AllowedMIMETypes {
		if detected.Is(allowed) {
			return nil
		}
		// a text/csv detection satisfies an allow-listed text/plain parent
		for parent := detected.Parent(); parent != nil; parent = parent.Parent() {
			if parent.Is(allowed) {
				return nil
			}
		}
	}
	return errors.MIMEMismatch(detected.String())
}

// checkStructure decodes the content with a forgiving encoding policy, sniffs
// the dialect, and confirms a non-empty header followed by at least one data
// row. The decoded content is returned so later stages need no second decode.
func (v *Validator) checkStructure(data []byte) (string, [][]string, error) {
	content, err := ingest.DecodeText(data)
	if err != nil {
		return "", nil, errors.MalformedCSV("file content could not be decoded", err)
	}

	dialect := ingest.Sniff(content)
	r := csv.NewReader(strings.NewReader(content))
	r.Comma = dialect.Delimiter
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return "", nil, errors.MalformedCSV("missing or unreadable header row", err)
	}
	if len(header) == 0 || (len(header) == 1 && strings.TrimSpace(header[0]) == "") {
		return "", nil, errors.MalformedCSV("header row is empty", nil)
	}

	records := [][]string{header}
	dataRows := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		records = append(records, record)
		dataRows++
	}
	if dataRows == 0 {
		return "", nil, errors.MalformedCSV("no data rows after header", nil)
	}

	return content, records, nil
}

// checkCells enforces the per-cell size cap across the whole file.
func (v *Validator) checkCells(records [][]string) error {
	for row, record := range records {
		for _, field := range record {
			if len(field) > v.cfg.MaxCellSize {
				return errors.CellTooLarge(row, v.cfg.MaxCellSize)
			}
		}
	}
	return nil
}

var filenameSanitizer = regexp.MustCompile(`[^\w.\s-]`)

// SanitizeFilename strips everything except word characters, whitespace,
// dots and hyphens, and truncates to 255 characters. Downstream storage uses
// this name, never the original.
func SanitizeFilename(name string) string {
	base := filepath.Base(name)
	clean := filenameSanitizer.ReplaceAllString(base, "")
	clean = strings.TrimSpace(clean)
	if clean == "" {
		clean = "upload.csv"
	}
	if len(clean) > 255 {
		clean = clean[:255]
	}
	return clean
}
