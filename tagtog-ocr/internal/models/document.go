package models

import "time"

// Source is the kind of input a file was classified as. It is resolved once
// from the extension and never from file content.
type Source int

const (
	SourceUnsupported Source = iota
	SourcePDF
	SourceImage
)

func (s Source) String() string {
	switch s {
	case SourcePDF:
		return "pdf"
	case SourceImage:
		return "image"
	default:
		return "unsupported"
	}
}

// InputFile is a discovered file that passed extension filtering.
type InputFile struct {
	Path   string
	Ext    string // lowercased, without the dot
	Source Source
}

// Target is where every document of a run is uploaded to.
type Target struct {
	Owner   string
	Project string
	Folder  string
}

// Credentials are read from the environment once per run.
type Credentials struct {
	Username string
	Password string
	Token    string // bearer token; when set it replaces basic auth on uploads
}

// Metadata describes one uploaded document, kept by the ledger.
type Metadata struct {
	RunID      string
	Path       string
	Checksum   string
	Filename   string
	Target     Target
	Pages      int
	UploadedAt time.Time
}
