//go:build linux

package main

import (
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"

	"hanim/internal/config"
	"hanim/internal/ibus"
)

const componentFile = "hanim.xml"

type component struct {
	XMLName     xml.Name          `xml:"component"`
	Name        string            `xml:"name"`
	Description string            `xml:"description"`
	Exec        string            `xml:"exec"`
	Version     string            `xml:"version"`
	License     string            `xml:"license"`
	Textdomain  string            `xml:"textdomain"`
	Engines     []componentEngine `xml:"engines>engine"`
}

type componentEngine struct {
	Name        string `xml:"name"`
	Language    string `xml:"language"`
	License     string `xml:"license"`
	Layout      string `xml:"layout"`
	Longname    string `xml:"longname"`
	Description string `xml:"description"`
	Rank        int    `xml:"rank"`
	Symbol      string `xml:"symbol"`
}

func componentXML(binPath string) ([]byte, error) {
	c := component{
		Name:        ibus.BusName,
		Description: "Hanim Korean input method",
		Exec:        binPath + " --ibus",
		Version:     "1.0.0",
		License:     "MIT",
		Textdomain:  "hanim",
		Engines: []componentEngine{{
			Name:        ibus.EngineName,
			Language:    "ko",
			License:     "MIT",
			Layout:      "us",
			Longname:    "Korean (Hanim)",
			Description: "Dubeolsik Hangul composition",
			Rank:        50,
			Symbol:      "한",
		}},
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "    ")
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func componentPath() string {
	return filepath.Join(config.PlatformDataDir(), "ibus", "component", componentFile)
}

func installComponent() (string, error) {
	binPath, err := os.Executable()
	if err != nil {
		binPath = "/usr/local/bin/hanim-ibus"
	}
	data, err := componentXML(binPath)
	if err != nil {
		return "", err
	}

	path := componentPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	return path, os.WriteFile(path, data, 0o644)
}

func uninstallComponent() error {
	return os.Remove(componentPath())
}
