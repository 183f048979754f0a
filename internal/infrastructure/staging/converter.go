package staging

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	domain "github.com/crmkit/contact-ingest/internal/domain/contact"
)

var ErrEmptyFile = errors.New("uploaded file has no data rows")

// Convert parses an uploaded CSV buffer row by row and persists the rows as
// a staged JSON record sequence tagged with the owning account. A malformed
// row fails the whole conversion and leaves no staged file behind; tolerance
// for bad field values belongs to the batch processor, not to conversion.
func (s *Store) Convert(fileBuffer []byte, originalFileName, accountID string) (stagedPath string, total int64, err error) {
	reader := csv.NewReader(bytes.NewReader(fileBuffer))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return "", 0, fmt.Errorf("read csv header: %w", err)
	}
	columns := mapColumns(header)

	base := strings.TrimSuffix(filepath.Base(originalFileName), filepath.Ext(originalFileName))
	stagedName := fmt.Sprintf("%s_%s.json", base, uuid.NewString())
	path := filepath.Join(s.BaseDir, stagedName)

	out, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create staged file: %w", err)
	}

	total, err = writeRecords(out, reader, columns, accountID)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", 0, err
	}
	if total == 0 {
		os.Remove(path)
		return "", 0, ErrEmptyFile
	}

	return stagedName, total, nil
}

func writeRecords(out io.Writer, reader *csv.Reader, columns map[string]int, accountID string) (int64, error) {
	writer := bytes.NewBuffer(nil)
	enc := json.NewEncoder(writer)

	if _, err := out.Write([]byte("[")); err != nil {
		return 0, err
	}

	var total int64
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("malformed csv row %d: %w", total+1, err)
		}

		rec := domain.Record{
			Name:      field(row, columns, "name"),
			Email:     field(row, columns, "email"),
			Phone:     field(row, columns, "phone"),
			Address:   field(row, columns, "address"),
			AccountID: accountID,
		}

		writer.Reset()
		if total > 0 {
			writer.WriteByte(',')
		}
		if err := enc.Encode(rec); err != nil {
			return 0, fmt.Errorf("encode staged record %d: %w", total, err)
		}
		if _, err := out.Write(bytes.TrimRight(writer.Bytes(), "\n")); err != nil {
			return 0, fmt.Errorf("write staged record %d: %w", total, err)
		}
		total++
	}

	if _, err := out.Write([]byte("]")); err != nil {
		return 0, err
	}
	return total, nil
}

func mapColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return columns
}

func field(row []string, columns map[string]int, name string) string {
	i, ok := columns[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
