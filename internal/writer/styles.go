package writer

import (
	"bytes"
	"fmt"
	"io/fs"
	"sync"

	"github.com/fumiama/go-docx"
)

const (
	reportTemplate = "default"
	stylesPath     = "xml/" + reportTemplate + "/word/styles.xml"
)

// Heading style ids referenced by report paragraphs. The embedded theme only
// defines Normal ("a") and a few character/table styles, so both are added.
const (
	styleTitle  = "Heading1"
	styleEntity = "Heading2"
)

const headingStyles = `
    <w:style w:type="paragraph" w:styleId="` + styleTitle + `">
        <w:name w:val="heading 1"/>
        <w:basedOn w:val="a"/>
        <w:next w:val="a"/>
        <w:uiPriority w:val="9"/>
        <w:qFormat/>
        <w:pPr>
            <w:keepNext/>
            <w:spacing w:before="240" w:after="120"/>
            <w:outlineLvl w:val="0"/>
        </w:pPr>
        <w:rPr>
            <w:b/>
            <w:bCs/>
            <w:sz w:val="32"/>
            <w:szCs w:val="32"/>
        </w:rPr>
    </w:style>
    <w:style w:type="paragraph" w:styleId="` + styleEntity + `">
        <w:name w:val="heading 2"/>
        <w:basedOn w:val="a"/>
        <w:next w:val="a"/>
        <w:uiPriority w:val="9"/>
        <w:unhideWhenUsed/>
        <w:qFormat/>
        <w:pPr>
            <w:keepNext/>
            <w:spacing w:before="200" w:after="80"/>
            <w:outlineLvl w:val="1"/>
        </w:pPr>
        <w:rPr>
            <w:b/>
            <w:bCs/>
            <w:sz w:val="28"/>
            <w:szCs w:val="28"/>
        </w:rPr>
    </w:style>
`

// reportTemplateFS returns the library's default template with the heading
// styles appended to word/styles.xml.
var reportTemplateFS = sync.OnceValues(func() (fs.FS, error) {
	base, err := fs.ReadFile(docx.TemplateXMLFS, stylesPath)
	if err != nil {
		return nil, err
	}
	end := bytes.LastIndex(base, []byte("</w:styles>"))
	if end < 0 {
		return nil, fmt.Errorf("%s: no closing styles element", stylesPath)
	}
	styles := make([]byte, 0, len(base)+len(headingStyles))
	styles = append(styles, base[:end]...)
	styles = append(styles, headingStyles...)
	styles = append(styles, base[end:]...)
	return overlayFS{FS: docx.TemplateXMLFS, path: stylesPath, data: styles}, nil
})

// overlayFS serves data in place of one file of the wrapped FS.
type overlayFS struct {
	fs.FS
	path string
	data []byte
}

func (o overlayFS) Open(name string) (fs.File, error) {
	if name != o.path {
		return o.FS.Open(name)
	}
	f, err := o.FS.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	f.Close()
	if err != nil {
		return nil, err
	}
	return &memFile{Reader: bytes.NewReader(o.data), info: sizedInfo{FileInfo: info, size: int64(len(o.data))}}, nil
}

type memFile struct {
	*bytes.Reader
	info fs.FileInfo
}

func (f *memFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *memFile) Close() error               { return nil }

type sizedInfo struct {
	fs.FileInfo
	size int64
}

func (i sizedInfo) Size() int64 { return i.size }
