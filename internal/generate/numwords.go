package generate

import "strings"

var onesWords = []string{
	"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
	"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen",
	"seventeen", "eighteen", "nineteen",
}

var tensWords = []string{"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety"}

// NumberToWords spells out 0..999 in basic English; values outside the
// range are clamped into it.
func NumberToWords(n int) string {
	if n < 0 {
		n = 0
	}
	if n > 999 {
		n = 999
	}
	if n < 20 {
		return onesWords[n]
	}
	if n < 100 {
		t := tensWords[n/10]
		if r := n % 10; r != 0 {
			return t + " " + onesWords[r]
		}
		return t
	}
	var b strings.Builder
	b.WriteString(onesWords[n/100])
	b.WriteString(" hundred")
	if rem := n % 100; rem != 0 {
		b.WriteString(" ")
		b.WriteString(NumberToWords(rem))
	}
	return b.String()
}
