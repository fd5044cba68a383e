// Package feedback appends user ratings of the application to a CSV file.
package feedback

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jmylchreest/expatscrape/internal/logger"
)

// ErrInvalidEntry is returned when an entry fails validation.
var ErrInvalidEntry = errors.New("invalid feedback entry")

// DateLayout is the format of the date column.
const DateLayout = "2006-01-02 15:04:05"

// Header is written once, when the file is new or empty.
var Header = []string{"date", "name", "email", "rating", "feedback"}

// Entry is one submitted evaluation. Name and email are optional.
type Entry struct {
	Date    time.Time
	Name    string `validate:"max=200"`
	Email   string `validate:"omitempty,email"`
	Rating  int    `validate:"min=0,max=5"`
	Message string `validate:"max=5000"`
}

var validate = validator.New()

// Validate checks the entry and reports every failing field.
func (e Entry) Validate() error {
	err := validate.Struct(e)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s %s", strings.ToLower(fe.Field()), formatValidationError(fe)))
	}
	return fmt.Errorf("%w: %s", ErrInvalidEntry, strings.Join(msgs, "; "))
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "min":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", e.Param())
	case "email":
		return "must be a valid email address"
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}

// Record returns the CSV cells for the entry. A zero Date is stamped with
// the current time.
func (e Entry) Record() []string {
	at := e.Date
	if at.IsZero() {
		at = time.Now()
	}
	return []string{
		at.Format(DateLayout),
		e.Name,
		e.Email,
		strconv.Itoa(e.Rating),
		e.Message,
	}
}

// Append validates e and appends it to the CSV at path, creating the file
// and its parent directory when needed.
func Append(path string, e Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open feedback file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Header); err != nil {
			return err
		}
	}
	if err := w.Write(e.Record()); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write feedback: %w", err)
	}

	logger.Debug("feedback recorded", "path", path, "rating", e.Rating)
	return nil
}
