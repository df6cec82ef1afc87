// Package pdfcheck verifies generated PDFs with pdfcpu.
package pdfcheck

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var once sync.Once

func config() *model.Configuration {
	once.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// PageCount returns the number of pages in the PDF data
func PageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), config())
	if err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return n, nil
}

// PageCountFile returns the number of pages in a PDF file
func PageCountFile(path string) (int, error) {
	once.Do(api.DisableConfigDir)
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages of %s: %w", path, err)
	}
	return n, nil
}

// Validate runs pdfcpu validation in relaxed mode
func Validate(data []byte) error {
	if err := api.Validate(bytes.NewReader(data), config()); err != nil {
		return fmt.Errorf("invalid PDF: %w", err)
	}
	return nil
}
