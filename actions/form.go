package actions

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02",
}

func invalidField(field string) string {
	return fmt.Sprintf("La valeur du champ %s n'est pas valide", field)
}

// parseDate accepts the formats sent by date and datetime-local inputs
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date %q", s)
}

// parseNumber treats an empty value as zero
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}

func positiveID(field string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		id, err := parseID(s)
		if err != nil || id <= 0 {
			return errors.New(invalidField(field))
		}
		return nil
	}
}

func numberBetween(field string, min, max float64) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		n, err := parseNumber(s)
		if err != nil || n < min || (max > min && n > max) {
			return errors.New(invalidField(field))
		}
		return nil
	}
}

func validDate(message string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		if _, err := parseDate(s); err != nil {
			return errors.New(message)
		}
		return nil
	}
}

// normalizeLabels trims every comma separated label and drops empty ones
func normalizeLabels(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ",")
}

func isChecked(v string) bool {
	return v == "on" || v == "true"
}

func stringsToAny(values ...string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
