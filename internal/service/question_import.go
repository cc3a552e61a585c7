package service

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/yourusername/mastery-api/internal/domain/entity"
	apperrors "github.com/yourusername/mastery-api/internal/pkg/errors"
)

// Колонки листа импорта: topic_order | text | option_1..option_4 | correct_index | difficulty | explanation
const importColumns = 9

// QuestionRow - строка импорта вопросов
type QuestionRow struct {
	Row                int
	TopicOrder         int
	Text               string
	Options            []string
	CorrectAnswerIndex int
	Difficulty         int
	Explanation        string
}

// RowError - ошибка в конкретной строке файла
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportError собирает ошибки всех строк. Считается ошибкой валидации.
type ImportError struct {
	Rows []RowError
}

func (e *ImportError) add(row int, msg string) {
	e.Rows = append(e.Rows, RowError{Row: row, Message: msg})
}

func (e *ImportError) Error() string {
	parts := make([]string, 0, len(e.Rows))
	for _, r := range e.Rows {
		parts = append(parts, fmt.Sprintf("row %d: %s", r.Row, r.Message))
	}
	return fmt.Sprintf("%s: %s", apperrors.ErrValidation, strings.Join(parts, "; "))
}

func (e *ImportError) Unwrap() error {
	return apperrors.ErrValidation
}

// ParseQuestionsXLSX читает вопросы с первого листа книги. Первая строка - заголовки.
func ParseQuestionsXLSX(r io.Reader) ([]QuestionRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open xlsx: %v", apperrors.ErrValidation, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", apperrors.ErrValidation)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	importErr := &ImportError{}
	var result []QuestionRow
	for i, cells := range rows {
		rowNum := i + 1
		if i == 0 || isBlankRow(cells) {
			continue // заголовки и пустые строки
		}
		for len(cells) < importColumns {
			cells = append(cells, "")
		}

		order, errOrder := strconv.Atoi(strings.TrimSpace(cells[0]))
		correct, errCorrect := strconv.Atoi(strings.TrimSpace(cells[6]))
		difficulty, errDifficulty := strconv.Atoi(strings.TrimSpace(cells[7]))
		switch {
		case errOrder != nil:
			importErr.add(rowNum, "topic_order is not a number")
			continue
		case errCorrect != nil:
			importErr.add(rowNum, "correct_index is not a number")
			continue
		case errDifficulty != nil:
			importErr.add(rowNum, "difficulty is not a number")
			continue
		}

		result = append(result, QuestionRow{
			Row:                rowNum,
			TopicOrder:         order,
			Text:               cells[1],
			Options:            []string{cells[2], cells[3], cells[4], cells[5]},
			CorrectAnswerIndex: correct,
			Difficulty:         difficulty,
			Explanation:        cells[8],
		})
	}

	if len(importErr.Rows) > 0 {
		return nil, importErr
	}
	return result, nil
}

// QuestionImportHeaders - заголовки шаблона импорта
func QuestionImportHeaders() []interface{} {
	headers := []interface{}{"topic_order", "text"}
	for i := 1; i <= entity.OptionsPerQuestion; i++ {
		headers = append(headers, fmt.Sprintf("option_%d", i))
	}
	return append(headers, "correct_index", "difficulty", "explanation")
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
