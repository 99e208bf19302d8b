package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/formlens/formlens/internal/entity"
)

// Format names accepted by ByFormat.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXML  = "xml"
	FormatXLSX = "xlsx"
)

// ByFormat renders a result in the named format.
func ByFormat(res *entity.DocumentResult, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		return JSON(res, true)
	case FormatCSV:
		return CSV(res)
	case FormatXML:
		return XML(res)
	case FormatXLSX:
		return XLSX(res)
	default:
		return nil, fmt.Errorf("unknown export format: %q", format)
	}
}

// JSON renders the stable output contract.
func JSON(res *entity.DocumentResult, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(res, "", "  ")
	}
	return json.Marshal(res)
}

// CSV renders one row per entity: page,text,label,confidence,x1,y1,x2,y2.
func CSV(res *entity.DocumentResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"page", "text", "label", "confidence", "x1", "y1", "x2", "y2"}); err != nil {
		return nil, err
	}
	for _, page := range res.Results {
		for _, e := range page.Entities {
			row := []string{
				strconv.Itoa(page.Page),
				e.Text,
				string(e.Label),
				strconv.FormatFloat(e.Confidence, 'f', 3, 64),
				strconv.Itoa(e.Box.X1),
				strconv.Itoa(e.Box.Y1),
				strconv.Itoa(e.Box.X2),
				strconv.Itoa(e.Box.Y2),
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// Wire types for the XML rendering.
type xmlBBox struct {
	X1 int `xml:"x1,attr"`
	Y1 int `xml:"y1,attr"`
	X2 int `xml:"x2,attr"`
	Y2 int `xml:"y2,attr"`
}

type xmlEntity struct {
	Text       string  `xml:"text"`
	Label      string  `xml:"label"`
	Confidence float64 `xml:"confidence"`
	BBox       xmlBBox `xml:"bbox"`
}

type xmlPage struct {
	Number   int         `xml:"number,attr"`
	Entities []xmlEntity `xml:"entity"`
}

type xmlMetadata struct {
	ModelVersion string `xml:"model_version"`
	OCREngine    string `xml:"ocr_engine"`
}

type xmlDocument struct {
	XMLName          xml.Name    `xml:"document"`
	Status           string      `xml:"status"`
	ProcessingTimeMS float64     `xml:"processing_time_ms"`
	Metadata         xmlMetadata `xml:"metadata"`
	Pages            []xmlPage   `xml:"results>page"`
}

// XML renders the result as a <document> tree.
func XML(res *entity.DocumentResult) ([]byte, error) {
	doc := xmlDocument{
		Status:           string(res.Status),
		ProcessingTimeMS: res.ProcessingTimeMS,
		Metadata: xmlMetadata{
			ModelVersion: res.Metadata.ModelVersion,
			OCREngine:    res.Metadata.OCREngine,
		},
	}
	for _, page := range res.Results {
		xp := xmlPage{Number: page.Page}
		for _, e := range page.Entities {
			xp.Entities = append(xp.Entities, xmlEntity{
				Text:       e.Text,
				Label:      string(e.Label),
				Confidence: e.Confidence,
				BBox:       xmlBBox{X1: e.Box.X1, Y1: e.Box.Y1, X2: e.Box.X2, Y2: e.Box.Y2},
			})
		}
		doc.Pages = append(doc.Pages, xp)
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

// XLSX renders an "Entities" workbook, one row per entity.
func XLSX(res *entity.DocumentResult) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Entities"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	// Drop the default sheet so the workbook opens on Entities.
	if index, _ := f.GetSheetIndex("Sheet1"); index != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{"Page", "Text", "Label", "Confidence", "X1", "Y1", "X2", "Y2"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	row := 2
	for _, page := range res.Results {
		for _, e := range page.Entities {
			values := []any{page.Page, e.Text, string(e.Label), e.Confidence, e.Box.X1, e.Box.Y1, e.Box.X2, e.Box.Y2}
			for i, v := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return nil, err
				}
			}
			row++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
