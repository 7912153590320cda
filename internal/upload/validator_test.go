package upload

import (
	"strings"
	"testing"

	"github.com/advisorlens/advisorlens/internal/pkg/errors"
	"github.com/advisorlens/advisorlens/internal/testutil"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	return NewValidator(testutil.UploadConfig(), testutil.Logger())
}

func csvUpload(name string, data []byte) RawUpload {
	return RawUpload{
		Filename:    name,
		ContentType: "text/csv",
		Size:        int64(len(data)),
		Data:        data,
	}
}

func rejectionCode(t *testing.T, err error) string {
	t.Helper()
	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("err = %v, want AppError", err)
	}
	return appErr.Code
}

func TestValidateAccepts(t *testing.T) {
	data := testutil.CSV(
		testutil.AdvisorHeader,
		testutil.AdvisorRow("Cost", "High", "Buy reserved instances", "vm-01", "500"),
	)

	v := newTestValidator(t)
	file, err := v.Validate(csvUpload("advisor-export.csv", data))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if file.Filename != "advisor-export.csv" {
		t.Errorf("Filename = %q", file.Filename)
	}
	if !strings.Contains(file.Content, "Buy reserved instances") {
		t.Error("decoded content missing data row")
	}
}

func TestValidateRejectsExtension(t *testing.T) {
	v := newTestValidator(t)

	for _, name := range []string{"report.xlsx", "report.csv.exe", "report", "csv"} {
		_, err := v.Validate(csvUpload(name, testutil.CSV("Category,Recommendation", "Cost,x")))
		if code := rejectionCode(t, err); code != errors.ErrCodeInvalidFileType {
			t.Errorf("%s: code = %s, want %s", name, code, errors.ErrCodeInvalidFileType)
		}
	}
}

func TestValidateRejectsEmpty(t *testing.T) {
	v := newTestValidator(t)
	_, err := v.Validate(RawUpload{Filename: "empty.csv", Size: 0})
	if code := rejectionCode(t, err); code != errors.ErrCodeEmptyFile {
		t.Errorf("code = %s, want %s", code, errors.ErrCodeEmptyFile)
	}
}

func TestValidateSizeCheckedBeforeContent(t *testing.T) {
	// declared size over the ceiling rejects even though the buffered bytes
	// are tiny and perfectly valid CSV
	cfg := testutil.UploadConfig()
	cfg.MaxUploadSize = 100

	v := NewValidator(cfg, testutil.Logger())
	u := csvUpload("big.csv", testutil.CSV("Category,Recommendation", "Cost,x"))
	u.Size = 101

	_, err := v.Validate(u)
	if code := rejectionCode(t, err); code != errors.ErrCodeFileTooLarge {
		t.Errorf("code = %s, want %s", code, errors.ErrCodeFileTooLarge)
	}
}

func TestValidateRejectsMagicBytes(t *testing.T) {
	// a PNG renamed to .csv must be caught by content sniffing, not the
	// declared content type
	v := newTestValidator(t)
	u := csvUpload("screenshot.csv", testutil.PNGHeader)

	_, err := v.Validate(u)
	if code := rejectionCode(t, err); code != errors.ErrCodeMIMEMismatch {
		t.Errorf("code = %s, want %s", code, errors.ErrCodeMIMEMismatch)
	}
}

func TestValidateRejectsHeaderOnly(t *testing.T) {
	v := newTestValidator(t)
	_, err := v.Validate(csvUpload("header-only.csv", []byte("Category,Recommendation\n")))
	if code := rejectionCode(t, err); code != errors.ErrCodeMalformedCSV {
		t.Errorf("code = %s, want %s", code, errors.ErrCodeMalformedCSV)
	}
}

func TestValidateRejectsMissingColumns(t *testing.T) {
	v := newTestValidator(t)
	_, err := v.Validate(csvUpload("wrong.csv", []byte("Foo,Bar\n1,2\n")))
	if code := rejectionCode(t, err); code != errors.ErrCodeMissingColumns {
		t.Errorf("code = %s, want %s", code, errors.ErrCodeMissingColumns)
	}
}

func TestValidateRejectsOversizedCell(t *testing.T) {
	cfg := testutil.UploadConfig()
	cfg.MaxCellSize = 50

	v := NewValidator(cfg, testutil.Logger())
	big := strings.Repeat("x", 51)
	data := testutil.CSV("Category,Recommendation", "Cost,"+big)

	_, err := v.Validate(csvUpload("fat-cell.csv", data))
	if code := rejectionCode(t, err); code != errors.ErrCodeCellTooLarge {
		t.Errorf("code = %s, want %s", code, errors.ErrCodeCellTooLarge)
	}
}

func TestValidateChecksAreOrdered(t *testing.T) {
	// a file failing several checks reports the first one in sequence
	v := newTestValidator(t)
	u := RawUpload{Filename: "everything-wrong.exe", Size: 0, Data: testutil.PNGHeader}

	_, err := v.Validate(u)
	if code := rejectionCode(t, err); code != errors.ErrCodeInvalidFileType {
		t.Errorf("code = %s, want extension rejection first", code)
	}
}

func TestValidateIdempotent(t *testing.T) {
	v := newTestValidator(t)
	u := csvUpload("wrong.csv", []byte("Foo,Bar\n1,2\n"))

	first := rejectionCode(t, mustErr(t, v, u))
	for i := 0; i < 3; i++ {
		if got := rejectionCode(t, mustErr(t, v, u)); got != first {
			t.Fatalf("run %d: code %s differs from %s", i, got, first)
		}
	}
}

func mustErr(t *testing.T, v *Validator, u RawUpload) error {
	t.Helper()
	_, err := v.Validate(u)
	if err == nil {
		t.Fatal("expected rejection")
	}
	return err
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean name unchanged", "advisor-export.csv", "advisor-export.csv"},
		{"path stripped", "../../etc/passwd.csv", "passwd.csv"},
		{"special characters removed", "rep<or>t!*?.csv", "report.csv"},
		{"spaces kept", "my report.csv", "my report.csv"},
		{"everything stripped falls back", "<<>>", "upload.csv"},
		{"long name truncated", strings.Repeat("a", 300) + ".csv", strings.Repeat("a", 255)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.in); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
