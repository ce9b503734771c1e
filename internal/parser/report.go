package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/postalhub/letter-dispatch/internal/models"
)

// Vendor-contract-fixed report format.
const (
	columnDate     = "Date"
	columnTime     = "Time"
	columnFilename = "Filename"

	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// ParseReport reads one vendor confirmation report. Each well-formed row
// yields a Confirmation; a row that fails to parse is dropped and reported
// as a RowError, which marks the report as not fully parsed but never fails
// the report. An unreadable or wrongly-headed file fails as a whole.
//
// extractID recovers the letter id from the row's filename; it is the
// inverse of the upload filename scheme and is injected so the format stays
// owned by the pipeline.
func ParseReport(data []byte, extractID func(string) (string, error)) ([]models.Confirmation, []*models.RowError, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read report header: %w", err)
	}

	columns, err := columnIndexes(header)
	if err != nil {
		return nil, nil, err
	}

	var confirmations []models.Confirmation
	var rowErrors []*models.RowError

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			rowErrors = append(rowErrors, &models.RowError{Line: line, Message: "unreadable row", Err: err})
			continue
		}

		confirmation, rowErr := parseRow(record, line, columns, extractID)
		if rowErr != nil {
			rowErrors = append(rowErrors, rowErr)
			continue
		}
		confirmations = append(confirmations, confirmation)
	}

	return confirmations, rowErrors, nil
}

type reportColumns struct {
	date     int
	time     int
	filename int
}

func columnIndexes(header []string) (reportColumns, error) {
	columns := reportColumns{date: -1, time: -1, filename: -1}
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case columnDate:
			columns.date = i
		case columnTime:
			columns.time = i
		case columnFilename:
			columns.filename = i
		}
	}
	if columns.date == -1 || columns.time == -1 || columns.filename == -1 {
		return columns, fmt.Errorf("report header %v is missing one of %s, %s, %s",
			header, columnDate, columnTime, columnFilename)
	}
	return columns, nil
}

func parseRow(record []string, line int, columns reportColumns, extractID func(string) (string, error)) (models.Confirmation, *models.RowError) {
	var confirmation models.Confirmation

	maxIndex := columns.date
	if columns.time > maxIndex {
		maxIndex = columns.time
	}
	if columns.filename > maxIndex {
		maxIndex = columns.filename
	}
	if len(record) <= maxIndex {
		return confirmation, &models.RowError{Line: line, Message: "row has too few columns"}
	}

	letterID, err := extractID(record[columns.filename])
	if err != nil {
		return confirmation, &models.RowError{Line: line, Message: "malformed filename", Err: err}
	}

	printedAt, err := time.Parse(dateLayout+" "+timeLayout,
		strings.TrimSpace(record[columns.date])+" "+strings.TrimSpace(record[columns.time]))
	if err != nil {
		return confirmation, &models.RowError{Line: line, Message: "invalid confirmation timestamp", Err: err}
	}

	confirmation.LetterID = letterID
	confirmation.PrintedAt = printedAt.UTC()
	return confirmation, nil
}
