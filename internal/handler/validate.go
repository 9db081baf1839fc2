package handler

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// isNameLetter reports whether r is acceptable in a name part: Arabic or
// Latin letters only.
func isNameLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= 'أ' && r <= 'ي')
}

// ValidateFullName enforces the three-part name rule: exactly three
// whitespace-separated parts, each holding at least one Arabic or Latin
// letter and no digits, punctuation or symbols. The returned error carries
// the user-facing reason.
func ValidateFullName(full string) error {
	parts := strings.Fields(strings.TrimSpace(full))
	if len(parts) == 0 {
		return errors.New("❌ الاسم لا يمكن أن يكون فارغاً")
	}
	if len(parts) != 3 {
		return errors.New("❌ يجب إدخال الاسم الثلاثي (الاسم الأول + الأب + الجد)\nمثال: محمد عبدالله الفهد")
	}

	for _, part := range parts {
		hasLetter := false
		for _, r := range part {
			if unicode.IsDigit(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
				return fmt.Errorf("❌ الجزء '%s' يحتوي على أرقام أو رموز\nيجب أن يحتوي الاسم على أحرف عربية أو إنجليزية فقط", part)
			}
			if isNameLetter(r) {
				hasLetter = true
			}
		}
		if !hasLetter {
			return fmt.Errorf("❌ الجزء '%s' غير صالح\nيجب أن يحتوي على أحرف عربية أو إنجليزية", part)
		}
	}
	return nil
}
