package extractor

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
)

func readPDF(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return "", err
	}

	var text strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// One unreadable page should not discard the rest.
			continue
		}
		text.WriteString(pageText)
		text.WriteString("\n")
	}
	return normalize(text.String()), nil
}

func readDOCX(path string) (string, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", err
	}
	defer r.Close()

	// Paragraph ends become newlines so the chunker sees real boundaries.
	content := strings.ReplaceAll(r.Editable().GetContent(), "</w:p>", "</w:p>\n")
	var parts []string
	for _, para := range strings.Split(content, "\n") {
		if p := strings.TrimSpace(extractTagText(para, "w:t")); p != "" {
			parts = append(parts, p)
		}
	}
	return normalize(strings.Join(parts, "\n")), nil
}

func readPPTX(path string) (string, error) {
	f, err := zip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var slides []string
	slideNum := 0
	for _, file := range f.File {
		if !strings.HasPrefix(file.Name, "ppt/slides/slide") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		slideNum++
		slideText := strings.TrimSpace(extractTagText(string(data), "a:t"))
		if slideText != "" {
			slides = append(slides, fmt.Sprintf("[Slide %d]\n%s", slideNum, slideText))
		}
	}
	return normalize(strings.Join(slides, "\n\n")), nil
}

func readXLSX(path string) (string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return "", err
	}

	var sheets []string
	for _, sheet := range f.Sheets {
		var text strings.Builder
		text.WriteString(fmt.Sprintf("[Sheet: %s]\n", sheet.Name))
		rows := 0
		for _, row := range sheet.Rows {
			var cells []string
			for _, cell := range row.Cells {
				if v := strings.TrimSpace(cell.String()); v != "" {
					cells = append(cells, v)
				}
			}
			if len(cells) > 0 {
				text.WriteString(strings.Join(cells, " | "))
				text.WriteString("\n")
				rows++
			}
		}
		if rows > 0 {
			sheets = append(sheets, strings.TrimRight(text.String(), "\n"))
		}
	}
	return normalize(strings.Join(sheets, "\n\n")), nil
}

// readWorkbook handles the formats excelize covers (.xlsm, .ods).
func readWorkbook(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var sheets []string
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		var text strings.Builder
		text.WriteString(fmt.Sprintf("[Sheet: %s]\n", sheetName))
		count := 0
		for _, row := range rows {
			var cells []string
			for _, cell := range row {
				if v := strings.TrimSpace(cell); v != "" {
					cells = append(cells, v)
				}
			}
			if len(cells) > 0 {
				text.WriteString(strings.Join(cells, " | "))
				text.WriteString("\n")
				count++
			}
		}
		if count > 0 {
			sheets = append(sheets, strings.TrimRight(text.String(), "\n"))
		}
	}
	return normalize(strings.Join(sheets, "\n\n")), nil
}

// extractTagText pulls the text content of every <tag ...>...</tag> element
// from raw Office XML. Good enough for run text (<w:t>, <a:t>) without a
// full XML parse.
func extractTagText(xmlContent, tag string) string {
	var text strings.Builder
	open := "<" + tag
	closing := "</" + tag + ">"

	rest := xmlContent
	for {
		idx := strings.Index(rest, open)
		if idx < 0 {
			break
		}
		rest = rest[idx+len(open):]
		// Reject longer tag names sharing the prefix (e.g. <a:tabLst>).
		if rest != "" && rest[0] != '>' && rest[0] != ' ' && rest[0] != '/' {
			continue
		}
		// Skip attributes up to the element's closing bracket.
		gt := strings.Index(rest, ">")
		if gt < 0 {
			break
		}
		if gt > 0 && rest[gt-1] == '/' { // self-closing, no text
			rest = rest[gt+1:]
			continue
		}
		rest = rest[gt+1:]
		end := strings.Index(rest, closing)
		if end < 0 {
			break
		}
		text.WriteString(rest[:end])
		text.WriteString(" ")
		rest = rest[end+len(closing):]
	}
	return text.String()
}
