// Package export renders result histories into tabular form for download.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"dyscalc-screening-service/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Header is the fixed column order of an export row.
var Header = []string{
	"resultId",
	"assessmentId",
	"userId",
	"userName",
	"userEmail",
	"createdAt",
	"totalScore",
	"number_sense",
	"arithmetic",
	"spatial",
	"memory",
	"totalTimeSeconds",
	"perQuestionTimeSeconds",
	"riskLevel",
	"confidenceScore",
	"numberReversal",
	"symbolConfusion",
	"sequencingError",
	"subtypeCounts",
}

type questionTime struct {
	QuestionID  string `json:"questionId"`
	TimeSeconds int64  `json:"timeSeconds"`
	Attempts    int    `json:"attempts"`
	IsCorrect   bool   `json:"isCorrect"`
}

// Row flattens one result into Header order. The user provides the
// name/email columns; JSON-bearing fields are encoded as compact JSON and
// escaped by the writer.
func Row(user domain.User, r domain.Result) ([]string, error) {
	var totalMs int64
	times := make([]questionTime, 0, len(r.Answers))
	for _, a := range r.Answers {
		totalMs += a.ResponseTimeMs
		attempts := a.Attempts
		if attempts <= 0 {
			attempts = 1
		}
		times = append(times, questionTime{
			QuestionID:  a.QuestionID,
			TimeSeconds: roundSeconds(a.ResponseTimeMs),
			Attempts:    attempts,
			IsCorrect:   a.IsCorrect,
		})
	}

	perQuestion, err := json.Marshal(times)
	if err != nil {
		return nil, fmt.Errorf("marshal question times: %w", err)
	}
	subtypes := r.SubtypeCounts
	if subtypes == nil {
		subtypes = domain.SubtypeCounts{}
	}
	subtypeJSON, err := json.Marshal(subtypes)
	if err != nil {
		return nil, fmt.Errorf("marshal subtype counts: %w", err)
	}

	return []string{
		r.ID,
		r.AssessmentID,
		r.UserID,
		user.Name,
		user.Email,
		r.CreatedAt.UTC().Format(time.RFC3339),
		strconv.Itoa(r.Scores.Total),
		strconv.Itoa(r.Scores.NumberSense),
		strconv.Itoa(r.Scores.Arithmetic),
		strconv.Itoa(r.Scores.Spatial),
		strconv.Itoa(r.Scores.Memory),
		strconv.FormatInt(roundSeconds(totalMs), 10),
		string(perQuestion),
		r.RiskLevel,
		strconv.Itoa(int(math.Round(r.ConfidenceScore))),
		strconv.Itoa(r.ErrorPatterns.NumberReversal),
		strconv.Itoa(r.ErrorPatterns.SymbolConfusion),
		strconv.Itoa(r.ErrorPatterns.SequencingError),
		string(subtypeJSON),
	}, nil
}

// WriteCSV streams the header plus one row per result. Quoting and
// double-quote doubling follow RFC 4180 via encoding/csv.
func WriteCSV(w io.Writer, user domain.User, results []domain.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range results {
		row, err := Row(user, r)
		if err != nil {
			return err
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX renders the same rows into a single-sheet workbook.
func WriteXLSX(w io.Writer, user domain.User, results []domain.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Results"
	f.SetSheetName("Sheet1", sheet)

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, r := range results {
		row, err := Row(user, r)
		if err != nil {
			return err
		}
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func roundSeconds(ms int64) int64 {
	return int64(math.Round(float64(ms) / 1000))
}
