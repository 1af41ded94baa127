package metadata

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/matzehuels/mvnpack/pkg/errors"
)

// Namespace is the XML namespace written on metadata documents. Documents
// without a namespace, or with a different one, are still accepted.
const Namespace = "urn:mvnpack:metadata:1"

// gzipMagic is the two-byte header of a gzip stream.
var gzipMagic = []byte{0x1f, 0x8b}

type document struct {
	XMLName xml.Name `xml:"metadata"`
	Xmlns   string   `xml:"xmlns,attr,omitempty"`
	PackageMetadata
}

// Decode reads one metadata document. Gzip-compressed input is detected by
// its magic number and decompressed transparently.
func Decode(r io.Reader) (*PackageMetadata, error) {
	br := bufio.NewReader(r)

	var src io.Reader = br
	if magic, err := br.Peek(len(gzipMagic)); err == nil && bytes.Equal(magic, gzipMagic) {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open gzip stream")
		}
		defer zr.Close()
		src = zr
	}

	var doc document
	if err := xml.NewDecoder(src).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode metadata")
	}
	return &doc.PackageMetadata, nil
}

// ReadFile decodes the metadata document at path.
func ReadFile(path string) (*PackageMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	md, err := Decode(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}
	return md, nil
}

// Encode writes md as an indented XML document.
func Encode(w io.Writer, md *PackageMetadata) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(document{Xmlns: Namespace, PackageMetadata: *md}); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode metadata")
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteFile encodes md to path, creating parent directories as needed.
func WriteFile(path string, md *PackageMetadata) error {
	var buf bytes.Buffer
	if err := Encode(&buf, md); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// MarshalXML writes each property as <key>value</key>.
func (p Properties) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, prop := range p {
		if err := e.EncodeElement(prop.Value, xml.StartElement{Name: xml.Name{Local: prop.Key}}); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// UnmarshalXML reads child elements as properties, keeping document order.
func (p *Properties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var out Properties
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var v string
			if err := d.DecodeElement(&v, &t); err != nil {
				return err
			}
			out = out.With(t.Name.Local, v)
		case xml.EndElement:
			*p = out
			return nil
		}
	}
}
