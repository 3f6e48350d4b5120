// Package builtin provides the standard course content types: course,
// chapter, sequential, vertical, html, video, problem, the raw fallback and
// the synthetic error type substituted for nodes that fail to load.
package builtin

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/coursegrid/coursegrid/internal/course"
)

// Element is a parsed XML element with its attributes, raw inner XML and
// the raw source of each direct child element. Child slices can be fed back
// through XMLParsingSystem.ProcessXML for recursive descent.
type Element struct {
	Tag      string
	Attrs    map[string]string
	Inner    []byte
	Children [][]byte
}

// ParseElement decodes the root element of data without interpreting its
// children.
func ParseElement(data []byte) (*Element, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))

	elem := &Element{Attrs: make(map[string]string)}
	depth := 0
	var innerStart, childStart int64

	for {
		offset := decoder.InputOffset()
		tok, err := decoder.Token()
		if err == io.EOF {
			if depth != 0 || elem.Tag == "" {
				return nil, fmt.Errorf("unexpected end of xml")
			}
			return elem, nil
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch depth {
			case 0:
				elem.Tag = t.Name.Local
				for _, attr := range t.Attr {
					elem.Attrs[attr.Name.Local] = attr.Value
				}
				innerStart = decoder.InputOffset()
			case 1:
				childStart = offset
			}
			depth++
		case xml.EndElement:
			depth--
			switch depth {
			case 0:
				elem.Inner = bytes.TrimSpace(data[innerStart:offset])
			case 1:
				elem.Children = append(elem.Children, data[childStart:decoder.InputOffset()])
			}
		}
	}
}

// urlName extracts the node name from the url_name attribute, falling back
// to a digest of the element source so unnamed nodes still get stable
// locations.
func urlName(elem *Element, raw []byte) string {
	if name, ok := elem.Attrs["url_name"]; ok && name != "" {
		return sanitizeName(name)
	}
	if name, ok := elem.Attrs["name"]; ok && name != "" {
		return sanitizeName(name)
	}
	sum := sha1.Sum(raw)
	return elem.Tag + "_" + hex.EncodeToString(sum[:4])
}

// sanitizeName maps arbitrary authored names onto the allowed location
// character set.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// brokenChildLocation derives a location for a child element that failed to
// parse. The name hashes the raw source so failed siblings get distinct
// error nodes instead of colliding on their parent's name.
func brokenChildLocation(sys *course.XMLParsingSystem, raw []byte) course.Location {
	sum := sha1.Sum(raw)
	return course.NewLocation(sys.Org, sys.Course, "error", "broken_"+hex.EncodeToString(sum[:4]))
}

// metadata attributes that identify rather than configure a node and so
// never become metadata fields.
var identityAttrs = map[string]bool{
	"url_name": true,
	"name":     true,
}

// attrMetadata converts the element's attributes into node metadata.
func attrMetadata(elem *Element) course.Metadata {
	md := course.Metadata{}
	for key, value := range elem.Attrs {
		if identityAttrs[key] {
			continue
		}
		md[key] = value
	}
	return md
}

// elementLocation builds the node's location from the parsing scope and the
// element.
func elementLocation(sys *course.XMLParsingSystem, elem *Element, raw []byte) course.Location {
	return course.NewLocation(sys.Org, sys.Course, elem.Tag, urlName(elem, raw))
}

// exportAttrs renders location name plus authored (non-inherited) metadata
// as XML attributes.
func exportAttrs(d course.Descriptor) []xml.Attr {
	attrs := []xml.Attr{{
		Name:  xml.Name{Local: "url_name"},
		Value: d.Location().Name,
	}}
	inherited := d.InheritedFields()
	for _, field := range sortedKeys(d.Metadata()) {
		if inherited.Contains(field) {
			continue
		}
		attrs = append(attrs, xml.Attr{
			Name:  xml.Name{Local: field},
			Value: d.Metadata()[field],
		})
	}
	return attrs
}

func sortedKeys(md course.Metadata) []string {
	keys := make([]string, 0, len(md))
	for k := range md {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// writeStartTag writes an opening tag with attributes.
func writeStartTag(b *bytes.Buffer, tag string, attrs []xml.Attr) {
	b.WriteByte('<')
	b.WriteString(tag)
	for _, attr := range attrs {
		b.WriteByte(' ')
		b.WriteString(attr.Name.Local)
		b.WriteString(`="`)
		xml.EscapeText(b, []byte(attr.Value))
		b.WriteByte('"')
	}
	b.WriteByte('>')
}

// exportContainer serializes a container node: authored attributes and the
// nested exports of every child.
func exportContainer(d course.Descriptor) ([]byte, error) {
	var b bytes.Buffer
	writeStartTag(&b, d.Category(), exportAttrs(d))
	b.WriteByte('\n')

	children, err := d.Children()
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		childXML, err := child.ExportXML()
		if err != nil {
			return nil, err
		}
		b.Write(childXML)
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "</%s>", d.Category())
	return b.Bytes(), nil
}

// exportLeaf serializes a leaf node with raw inner XML.
func exportLeaf(d course.Descriptor, inner string) ([]byte, error) {
	var b bytes.Buffer
	writeStartTag(&b, d.Category(), exportAttrs(d))
	b.WriteString(inner)
	fmt.Fprintf(&b, "</%s>", d.Category())
	return b.Bytes(), nil
}

// jsonDefinition converts the serialized definition of a JSON node into the
// domain form.
func jsonDefinition(data string, children []string) (*course.Definition, error) {
	def := &course.Definition{Data: data}
	for _, child := range children {
		loc, err := course.ParseLocation(child)
		if err != nil {
			return nil, fmt.Errorf("parsing child location %q: %w", child, err)
		}
		def.Children = append(def.Children, loc)
	}
	return def, nil
}
