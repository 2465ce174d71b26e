package stats

import (
	"context"
	"encoding/base64"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// File represents a file containing statistical data.
// This is typically an indicator table in Excel format, either on disk or
// behind a URL.
type File struct {
	Location      string
	Title         string
	ContentBase64 string
}

func (f *File) isRemote() bool {
	return strings.HasPrefix(f.Location, "http://") || strings.HasPrefix(f.Location, "https://")
}

// Ext returns the lower-cased file extension of the location, ignoring any
// query string.
func (f *File) Ext() string {
	p := f.Location
	if f.isRemote() {
		if u, err := url.Parse(f.Location); err == nil {
			p = u.Path
		}
	}
	return strings.ToLower(path.Ext(p))
}

// checkExcel fails unless the location names an .xls or .xlsx file.
func (f *File) checkExcel() error {
	switch f.Ext() {
	case ".xls", ".xlsx":
		return nil
	}
	return fmt.Errorf("'%s' is not an .xls or .xlsx file", f.Location)
}

// LoadContent reads the file from disk or downloads it.
func (f *File) LoadContent(ctx context.Context, client *http.Client) error {
	var data []byte
	var err error

	if f.isRemote() {
		data, err = download(ctx, client, f.Location)
	} else {
		data, err = ioutil.ReadFile(f.Location)
	}
	if err != nil {
		return err
	}

	f.ContentBase64 = base64.StdEncoding.EncodeToString(data)
	return nil
}

func (f *File) content() ([]byte, error) {
	return base64.StdEncoding.DecodeString(f.ContentBase64)
}
