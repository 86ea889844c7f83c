package subjectmerge

import (
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DecodeText converts uploaded bytes to a string. A UTF-8 or UTF-16 byte
// order mark selects the encoding and is dropped; anything else is taken as
// UTF-8.
func DecodeText(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return string(data)
	}
	return string(out)
}
