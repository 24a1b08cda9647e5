package model

// Asset is the image and caption derived from one table row. It is handed
// straight to the file writer and never stored.
type Asset struct {
	ImageBytes []byte
	Caption    string
	BaseName   string // suggested file base name, pre-sanitization
	Ext        string // suggested extension including the dot
}
