package media

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// CleanTagString 规整一个从标签里读出的字符串：
// 修复非法的UTF-8序列，归一化到NFC，去掉控制字符和首尾空白。
func CleanTagString(original string) string {
	s := strings.ToValidUTF8(original, "")
	s = norm.NFC.String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}

	return strings.TrimSpace(b.String())
}
