// Package pii masks emails and phone numbers before they reach logs or analytics.
package pii

import (
	"encoding/json"
	"reflect"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Bullet is the mask character
const Bullet = "•"

// DefaultVisibleDigits is number of trailing phone digits left visible
const DefaultVisibleDigits = 4

const (
	minPhoneDigits = 7
	minMaskLength  = 6
	shortMaskLimit = 4
)

var (
	emailShape     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneShape     = regexp.MustCompile(`^\+?[\d\s().-]{7,}$`)
	dateShape      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	emailInText    = regexp.MustCompile(`[^\s@<>()\[\]"',;:]+@[^\s@<>()\[\]"',;:]+\.[A-Za-z]{2,}`)
	phoneInText    = regexp.MustCompile(`\+?\d[\d\s().-]{5,}\d`)
	nonDigitFilter = regexp.MustCompile(`\D`)
)

// MaskPhone hides all but the last visibleDigits digits of phone.
// Non-positive visibleDigits means DefaultVisibleDigits.
func MaskPhone(phone string, visibleDigits int) string {
	if visibleDigits <= 0 {
		visibleDigits = DefaultVisibleDigits
	}

	digits := nonDigitFilter.ReplaceAllString(phone, "")
	if len(digits) <= visibleDigits {
		n := len(digits)
		if n > shortMaskLimit {
			n = shortMaskLimit
		}
		return strings.Repeat(Bullet, n)
	}

	masked := len(digits) - visibleDigits
	if masked < minMaskLength {
		masked = minMaskLength
	}
	return strings.Repeat(Bullet, masked) + digits[len(digits)-visibleDigits:]
}

// MaskEmail keeps first and last characters of local part and domain root, TLD stays as is.
// Malformed input is returned unchanged.
func MaskEmail(email string) string {
	if !emailShape.MatchString(email) {
		return email
	}

	at := strings.LastIndex(email, "@")
	local, domain := email[:at], email[at+1:]

	dot := strings.LastIndex(domain, ".")
	root, tld := domain[:dot], domain[dot+1:]

	return maskPart(local) + "@" + maskPart(root) + "." + tld
}

func maskPart(part string) string {
	first, size := utf8.DecodeRuneInString(part)
	if size == len(part) {
		return string(first) + "***"
	}
	last, _ := utf8.DecodeLastRuneInString(part)
	return string(first) + "***" + string(last)
}

// IsEmail reports whether s looks like email
func IsEmail(s string) bool {
	return emailShape.MatchString(s)
}

// IsPhone reports whether s looks like phone number
func IsPhone(s string) bool {
	if !phoneShape.MatchString(s) || dateShape.MatchString(s) {
		return false
	}
	return countDigits(s) >= minPhoneDigits
}

// ScrubPII walks value depth-first and masks every email or phone shaped string.
// Map keys are preserved, structs are scrubbed in their JSON shape, scalars are returned as is.
func ScrubPII(value any) any {
	switch v := value.(type) {
	case string:
		return scrubValue(v)
	case []string:
		res := make([]string, len(v))
		for i, s := range v {
			res[i] = scrubValue(s)
		}
		return res
	case []any:
		res := make([]any, len(v))
		for i, item := range v {
			res[i] = ScrubPII(item)
		}
		return res
	case map[string]string:
		res := make(map[string]string, len(v))
		for k, s := range v {
			res[k] = scrubValue(s)
		}
		return res
	case map[string]any:
		res := make(map[string]any, len(v))
		for k, item := range v {
			res[k] = ScrubPII(item)
		}
		return res
	case time.Time:
		return v
	case error:
		return ScrubString(v.Error())
	default:
		return scrubReflect(value)
	}
}

// scrubReflect covers typed slices, arrays, maps with string keys, structs and pointers.
// Byte sequences and maps with other keys are returned as is.
func scrubReflect(value any) any {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.String:
		return scrubValue(v.String())
	case reflect.Ptr:
		if v.IsNil() {
			return value
		}
		if v.Elem().Kind() == reflect.Struct {
			return scrubStruct(value)
		}
		return ScrubPII(v.Elem().Interface())
	case reflect.Struct:
		return scrubStruct(value)
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 || (v.Kind() == reflect.Slice && v.IsNil()) {
			return value
		}
		res := make([]any, v.Len())
		for i := range res {
			res[i] = ScrubPII(v.Index(i).Interface())
		}
		return res
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String || v.IsNil() {
			return value
		}
		res := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			res[iter.Key().String()] = ScrubPII(iter.Value().Interface())
		}
		return res
	default:
		return value
	}
}

// scrubStruct masks struct as it would be serialized, value which can't be serialized is dropped
func scrubStruct(value any) any {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil
	}

	var generic any
	if err := json.Unmarshal(encoded, &generic); err != nil {
		return nil
	}
	return ScrubPII(generic)
}

// ScrubString masks emails and phone numbers found inside free text
func ScrubString(text string) string {
	text = emailInText.ReplaceAllStringFunc(text, MaskEmail)

	matches := phoneInText.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	prev := 0
	for _, m := range matches {
		candidate := text[m[0]:m[1]]
		if !standalone(text, m[0], m[1]) || !IsPhone(candidate) {
			continue
		}
		b.WriteString(text[prev:m[0]])
		b.WriteString(MaskPhone(candidate, DefaultVisibleDigits))
		prev = m[1]
	}
	b.WriteString(text[prev:])
	return b.String()
}

func scrubValue(s string) string {
	switch {
	case IsEmail(s):
		return MaskEmail(s)
	case IsPhone(s):
		return MaskPhone(s, DefaultVisibleDigits)
	default:
		return s
	}
}

// standalone reports whether match isn't glued to letters, like inside identifiers
func standalone(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
