package model

import (
	"bytes"
	"io"
)

// Content types of the evidence documents.
const (
	ContentTypeCSV  = "text/csv"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Document is a tabular evidence artifact held in memory for one upload.
type Document struct {
	// Name is the logical filename sent in the multipart file part.
	Name string
	// LocalName is the filename used when the document is saved locally.
	LocalName   string
	ContentType string
	Data        []byte
	// Contents counts the tabular sections, e.g. "2 reviews, 3 comments".
	Contents string
}

// Reader returns a new reader positioned at the start of the document.
func (d *Document) Reader() io.Reader {
	return bytes.NewReader(d.Data)
}

// Size returns the document size in bytes.
func (d *Document) Size() int {
	return len(d.Data)
}

// UploadResult is the receipt returned by the evidence endpoint.
type UploadResult struct {
	ID int64 `json:"id"`
}
