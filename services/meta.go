package services

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// PageMeta holds the replacement values for a rendered page. Keys of Tags are
// meta property/name values such as "og:title" or "twitter:image".
type PageMeta struct {
	Title string
	Tags  map[string]string
}

// RewriteHead replaces the <title> text and the content attribute of every <meta>
// whose property or name is a key of meta.Tags. All other bytes are copied
// through untouched. Values are HTML-escaped before insertion.
func RewriteHead(doc []byte, meta PageMeta) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(len(doc) + 512)

	z := html.NewTokenizer(bytes.NewReader(doc))
	inTitle := false

	for {
		tt := z.Next()
		// TagName and TagAttr lowercase the buffer in place, keep the original bytes
		raw := append([]byte(nil), z.Raw()...)

		switch tt {
		case html.ErrorToken:
			out.Write(raw)
			if z.Err() == io.EOF {
				return out.Bytes(), nil
			}
			return nil, fmt.Errorf("tokenize shell: %w", z.Err())

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch {
			case bytes.Equal(name, []byte("title")) && tt == html.StartTagToken && meta.Title != "":
				inTitle = true
				out.Write(raw)
			case bytes.Equal(name, []byte("meta")) && hasAttr:
				out.Write(rewriteMetaTag(z, raw, meta.Tags))
			default:
				out.Write(raw)
			}

		case html.TextToken:
			if inTitle {
				continue
			}
			out.Write(raw)

		case html.EndTagToken:
			if inTitle {
				if name, _ := z.TagName(); bytes.Equal(name, []byte("title")) {
					out.WriteString(html.EscapeString(meta.Title))
					inTitle = false
				}
			}
			out.Write(raw)

		default:
			out.Write(raw)
		}
	}
}

func rewriteMetaTag(z *html.Tokenizer, raw []byte, tags map[string]string) []byte {
	var key string
	for {
		attrKey, attrVal, more := z.TagAttr()
		k := string(attrKey)
		if k == "property" || k == "name" {
			if _, ok := tags[string(attrVal)]; ok {
				key = string(attrVal)
			}
		}
		if !more {
			break
		}
	}
	if key == "" {
		return raw
	}

	value := `"` + html.EscapeString(tags[key]) + `"`

	if start, end, ok := attrValueSpan(raw, "content"); ok {
		res := make([]byte, 0, len(raw)+len(value))
		res = append(res, raw[:start]...)
		res = append(res, value...)
		res = append(res, raw[end:]...)
		return res
	}

	// no content attribute, add one before the closing bracket
	end := len(raw) - 1
	if strings.HasSuffix(string(raw), "/>") {
		end = len(raw) - 2
	}
	for end > 0 && (raw[end-1] == ' ' || raw[end-1] == '\t' || raw[end-1] == '\n') {
		end--
	}
	res := make([]byte, 0, len(raw)+len(value)+10)
	res = append(res, raw[:end]...)
	res = append(res, " content="...)
	res = append(res, value...)
	res = append(res, raw[end:]...)
	return res
}

// attrValueSpan finds the value of attribute name in a raw start tag, quotes included.
// Quoted values of other attributes are skipped, so their text never matches.
func attrValueSpan(raw []byte, name string) (start, end int, ok bool) {
	isSpace := func(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' }

	i := 1 // past '<'
	for i < len(raw) && !isSpace(raw[i]) && raw[i] != '/' && raw[i] != '>' {
		i++
	}

	for i < len(raw) {
		for i < len(raw) && (isSpace(raw[i]) || raw[i] == '/') {
			i++
		}
		if i >= len(raw) || raw[i] == '>' {
			return 0, 0, false
		}

		nameStart := i
		for i < len(raw) && !isSpace(raw[i]) && raw[i] != '=' && raw[i] != '/' && raw[i] != '>' {
			i++
		}
		if i == nameStart {
			i++ // stray '='
			continue
		}
		attr := raw[nameStart:i]

		for i < len(raw) && isSpace(raw[i]) {
			i++
		}
		if i >= len(raw) || raw[i] != '=' {
			continue
		}
		i++
		for i < len(raw) && isSpace(raw[i]) {
			i++
		}

		valStart := i
		if i < len(raw) && (raw[i] == '"' || raw[i] == '\'') {
			q := raw[i]
			i++
			for i < len(raw) && raw[i] != q {
				i++
			}
			if i < len(raw) {
				i++
			}
		} else {
			for i < len(raw) && !isSpace(raw[i]) && raw[i] != '>' {
				i++
			}
		}

		if strings.EqualFold(string(attr), name) {
			return valStart, i, true
		}
	}
	return 0, 0, false
}
