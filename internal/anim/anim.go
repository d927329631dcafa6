// Package anim writes the animator layout artifact of a run.
package anim

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const version = "netanim-3.108"

type animDoc struct {
	XMLName xml.Name   `xml:"anim"`
	Version string     `xml:"ver,attr"`
	Nodes   []animNode `xml:"node"`
}

type animNode struct {
	ID   int     `xml:"id,attr"`
	LocX float64 `xml:"locX,attr"`
	LocY float64 `xml:"locY,attr"`
}

// FileName returns the animator artifact name for a run.
func FileName(nodeCount int) string {
	return fmt.Sprintf("anim-%d-nodes.xml", nodeCount)
}

// Write emits the animator layout. The animator view is presentation
// only: nodes sit on a straight line at x = 10*i, not on the simulated
// grid.
func Write(w io.Writer, nodeCount int) error {
	doc := animDoc{Version: version}
	for i := 0; i < nodeCount; i++ {
		doc.Nodes = append(doc.Nodes, animNode{ID: i, LocX: float64(i) * 10.0})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("failed to write animation header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode animation: %w", err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("failed to finish animation: %w", err)
	}
	return nil
}

// WriteFile writes the animator artifact into dir.
func WriteFile(dir string, nodeCount int) error {
	path := filepath.Join(dir, FileName(nodeCount))
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create animation file '%s': %w", path, err)
	}
	defer file.Close()

	if err := Write(file, nodeCount); err != nil {
		return fmt.Errorf("failed to write animation file '%s': %w", path, err)
	}
	return nil
}
