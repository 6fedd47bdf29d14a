package main

import (
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// bulk export of the confirmed catalogue.  these are format adapters
// over exportRecords(); nothing here filters or rescores.

func exportFilename(ext string) string {
	return fmt.Sprintf("identifier-lists.%s", ext)
}

func (p *serviceContext) exportSnapshot(c *gin.Context) *catalogueSnapshot {
	snap := p.store.snapshot()

	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "catalogue is not loaded yet"})
		return nil
	}

	return snap
}

func (p *serviceContext) jsonDownloadHandler(c *gin.Context) {
	snap := p.exportSnapshot(c)
	if snap == nil {
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFilename("json")))
	c.JSON(http.StatusOK, snap.exportRecords())
}

// csv columns, in output order
var csvHeader = []string{
	"code", "name", "description", "url", "coverage", "subnationalCoverage",
	"structure", "sector", "listType", "licenseStatus", "availability", "quality",
}

func csvRow(rec *registerRecord) []string {
	return []string{
		rec.Code,
		rec.Name["en"],
		rec.Description["en"],
		rec.URL,
		strings.Join(rec.Coverage, " "),
		strings.Join(rec.SubnationalCoverage, " "),
		strings.Join(rec.Structure, " "),
		strings.Join(rec.Sector, " "),
		rec.ListType,
		rec.Data.LicenseStatus,
		strings.Join(rec.Data.Availability, " "),
		fmt.Sprintf("%d", rec.Quality),
	}
}

func (p *serviceContext) csvDownloadHandler(c *gin.Context) {
	snap := p.exportSnapshot(c)
	if snap == nil {
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFilename("csv")))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)

	w.Write(csvHeader)

	for i := range snap.registers {
		w.Write(csvRow(&snap.registers[i]))
	}

	w.Flush()
}

type xmlRegister struct {
	Code                string   `xml:"code,attr"`
	Name                string   `xml:"name"`
	Description         string   `xml:"description,omitempty"`
	URL                 string   `xml:"url,omitempty"`
	Coverage            []string `xml:"coverage>code,omitempty"`
	SubnationalCoverage []string `xml:"subnationalCoverage>code,omitempty"`
	Structure           []string `xml:"structure>code,omitempty"`
	Sector              []string `xml:"sector>code,omitempty"`
	ListType            string   `xml:"listType,omitempty"`
	LicenseStatus       string   `xml:"licenseStatus,omitempty"`
	Availability        []string `xml:"availability>code,omitempty"`
	Quality             int      `xml:"quality"`
}

type xmlRegisterList struct {
	XMLName   xml.Name      `xml:"identifierLists"`
	Generated string        `xml:"generated,attr"`
	Source    string        `xml:"source,attr"`
	Registers []xmlRegister `xml:"identifierList"`
}

func (p *serviceContext) xmlDownloadHandler(c *gin.Context) {
	snap := p.exportSnapshot(c)
	if snap == nil {
		return
	}

	list := xmlRegisterList{
		Generated: snap.loadedAt.Format("2006-01-02T15:04:05Z07:00"),
		Source:    snap.source,
	}

	for i := range snap.registers {
		rec := &snap.registers[i]

		list.Registers = append(list.Registers, xmlRegister{
			Code:                rec.Code,
			Name:                rec.Name["en"],
			Description:         rec.Description["en"],
			URL:                 rec.URL,
			Coverage:            rec.Coverage,
			SubnationalCoverage: rec.SubnationalCoverage,
			Structure:           rec.Structure,
			Sector:              rec.Sector,
			ListType:            rec.ListType,
			LicenseStatus:       rec.Data.LicenseStatus,
			Availability:        rec.Data.Availability,
			Quality:             rec.Quality,
		})
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFilename("xml")))
	c.XML(http.StatusOK, list)
}

// exportAllHandler serves the confirmed catalogue inline (the API
// counterpart of the download routes).
func (p *serviceContext) exportAllHandler(c *gin.Context) {
	snap := p.exportSnapshot(c)
	if snap == nil {
		return
	}

	c.JSON(http.StatusOK, snap.exportRecords())
}
