package services

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/signintech/gopdf"
	"github.com/xuri/excelize/v2"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// ExportService builds downloadable catalog reports of completed episodes
type ExportService struct {
	source   EpisodeSource
	siteName string
	now      func() time.Time
}

// NewExportService creates a new export service
func NewExportService(source EpisodeSource, siteName string) *ExportService {
	if siteName == "" {
		siteName = "Angle"
	}
	return &ExportService{source: source, siteName: siteName, now: time.Now}
}

var (
	colorPrimary   = "#6C5CE7" // Purple
	colorSecondary = "#00CEC9" // Teal

	categoryColors = []string{
		"#A29BFE", // Light Purple
		"#74B9FF", // Light Blue
		"#81ECEC", // Light Teal
		"#FFEAA7", // Light Yellow
		"#FAB1A0", // Light Coral
		"#DFE6E9", // Light Gray
	}
)

// CategoryCount is the number of completed episodes in a category
type CategoryCount struct {
	Category string
	Count    int
}

// countByCategory sorts by count desc then name; uncategorized episodes are counted under ""
func countByCategory(episodes []Episode) []CategoryCount {
	counts := map[string]int{}
	for _, ep := range episodes {
		counts[ep.Category]++
	}
	res := make([]CategoryCount, 0, len(counts))
	for cat, n := range counts {
		res = append(res, CategoryCount{Category: cat, Count: n})
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Count != res[j].Count {
			return res[i].Count > res[j].Count
		}
		return res[i].Category < res[j].Category
	})
	return res
}

func formatDuration(d *int) string {
	if d == nil || *d <= 0 {
		return ""
	}
	return fmt.Sprintf("%d:%02d", *d/60, *d%60)
}

func formatNumber(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func categoryName(c string) string {
	if c == "" {
		return "Uncategorized"
	}
	return c
}

// ExportToExcel generates the episode catalog workbook
func (s *ExportService) ExportToExcel(ctx context.Context) ([]byte, string, error) {
	episodes, err := s.source.ListEpisodes(ctx)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	// ===== Sheet 1: episodes =====
	sheetName := "Episodes"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, "", fmt.Errorf("cannot rename sheet: %w", err)
	}

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 18, Color: "#FFFFFF"},
		Fill: excelize.Fill{
			Type:    "gradient",
			Color:   []string{colorPrimary, colorSecondary},
			Shading: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	f.MergeCell(sheetName, "A1", "F1")
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s episode catalog", s.siteName))
	f.SetCellStyle(sheetName, "A1", "F1", titleStyle)
	f.SetRowHeight(sheetName, 1, 35)

	subtitleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 11, Color: "#636E72", Italic: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	f.MergeCell(sheetName, "A2", "F2")
	f.SetCellValue(sheetName, "A2", fmt.Sprintf("%d episodes, generated %s", len(episodes), s.now().UTC().Format("2006-01-02")))
	f.SetCellStyle(sheetName, "A2", "F2", subtitleStyle)

	headers := []string{"Published", "Title", "Category", "Host", "No.", "Duration"}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{colorPrimary}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    []excelize.Border{{Type: "bottom", Color: colorSecondary, Style: 2}},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		f.SetCellValue(sheetName, cell, header)
	}
	f.SetCellStyle(sheetName, "A3", "F3", headerStyle)
	f.SetRowHeight(sheetName, 3, 25)

	row := 4
	for _, ep := range episodes {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), ep.CreatedAt.UTC().Format("2006-01-02"))
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), ep.Title)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), categoryName(ep.Category))
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), ep.Host)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), formatNumber(ep.EpisodeNumber))
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), formatDuration(ep.Duration))
		row++
	}

	f.SetColWidth(sheetName, "A", "A", 14)
	f.SetColWidth(sheetName, "B", "B", 48)
	f.SetColWidth(sheetName, "C", "D", 22)
	f.SetColWidth(sheetName, "E", "F", 10)

	// ===== Sheet 2: categories =====
	summarySheet := "Categories"
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, "", fmt.Errorf("cannot create sheet: %w", err)
	}
	f.SetCellValue(summarySheet, "A1", "Category")
	f.SetCellValue(summarySheet, "B1", "Episodes")
	f.SetCellStyle(summarySheet, "A1", "B1", headerStyle)

	row = 2
	for i, cc := range countByCategory(episodes) {
		catStyle, _ := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Size: 11},
			Fill: excelize.Fill{Type: "pattern", Color: []string{categoryColors[i%len(categoryColors)]}, Pattern: 1},
		})
		f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), categoryName(cc.Category))
		f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), cc.Count)
		f.SetCellStyle(summarySheet, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), catStyle)
		row++
	}
	f.SetColWidth(summarySheet, "A", "A", 28)
	f.SetColWidth(summarySheet, "B", "B", 12)

	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", fmt.Errorf("cannot create Excel: %w", err)
	}

	filename := fmt.Sprintf("episodes-%s.xlsx", s.now().UTC().Format("20060102"))
	return buf.Bytes(), filename, nil
}

// ExportToPDF generates the episode catalog as an A4 PDF
func (s *ExportService) ExportToPDF(ctx context.Context) ([]byte, string, error) {
	episodes, err := s.source.ListEpisodes(ctx)
	if err != nil {
		return nil, "", err
	}

	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})

	if err := pdf.AddTTFFontData("GoRegular", goregular.TTF); err != nil {
		return nil, "", fmt.Errorf("cannot load font: %w", err)
	}
	if err := pdf.AddTTFFontData("GoBold", gobold.TTF); err != nil {
		return nil, "", fmt.Errorf("cannot load bold font: %w", err)
	}

	pdf.AddPage()

	// Header band
	pdf.SetFillColor(108, 92, 231)
	pdf.RectFromUpperLeftWithStyle(0, 0, 595, 100, "F")

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("GoBold", "", 26)
	pdf.SetXY(40, 30)
	pdf.Cell(nil, s.siteName)

	pdf.SetFont("GoRegular", "", 12)
	pdf.SetXY(40, 68)
	pdf.Cell(nil, fmt.Sprintf("Episode catalog, %d episodes, %s", len(episodes), s.now().UTC().Format("2006-01-02")))

	// Categories
	yPos := 125.0
	pdf.SetTextColor(45, 52, 54)
	pdf.SetFont("GoBold", "", 14)
	pdf.SetXY(30, yPos)
	pdf.Cell(nil, "Categories")
	yPos += 24

	pdf.SetFont("GoRegular", "", 11)
	maxWidth := 250.0
	counts := countByCategory(episodes)
	for i, cc := range counts {
		if i >= 10 {
			break
		}
		share := float64(cc.Count) / float64(len(episodes))
		barWidth := share * maxWidth
		if barWidth < 6 {
			barWidth = 6
		}
		pdf.SetFillColor(162, 155, 254)
		pdf.RectFromUpperLeftWithStyle(180, yPos, barWidth, 12, "F")
		pdf.SetXY(30, yPos)
		pdf.Cell(nil, truncateToWidth(&pdf, categoryName(cc.Category), 140))
		pdf.SetXY(440, yPos)
		pdf.Cell(nil, fmt.Sprintf("%d", cc.Count))
		yPos += 18
	}

	// Episode table
	yPos += 20
	pdf.SetFont("GoBold", "", 14)
	pdf.SetXY(30, yPos)
	pdf.Cell(nil, "Episodes")
	yPos += 24

	pdf.SetFont("GoRegular", "", 10)
	for _, ep := range episodes {
		if yPos > 790 {
			pdf.AddPage()
			yPos = 40
		}
		pdf.SetTextColor(99, 110, 114)
		pdf.SetXY(30, yPos)
		pdf.Cell(nil, ep.CreatedAt.UTC().Format("2006-01-02"))
		pdf.SetTextColor(45, 52, 54)
		pdf.SetXY(100, yPos)
		pdf.Cell(nil, truncateToWidth(&pdf, ep.Title, 300))
		pdf.SetXY(410, yPos)
		pdf.Cell(nil, truncateToWidth(&pdf, categoryName(ep.Category), 120))
		pdf.SetXY(535, yPos)
		pdf.Cell(nil, formatDuration(ep.Duration))
		yPos += 16
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, "", fmt.Errorf("cannot create PDF: %w", err)
	}

	filename := fmt.Sprintf("episodes-%s.pdf", s.now().UTC().Format("20060102"))
	return buf.Bytes(), filename, nil
}

// truncateToWidth shortens text with an ellipsis to fit width points in the current font
func truncateToWidth(pdf *gopdf.GoPdf, text string, width float64) string {
	if w, err := pdf.MeasureTextWidth(text); err != nil || w <= width {
		return text
	}
	r := []rune(text)
	for len(r) > 0 {
		r = r[:len(r)-1]
		if w, err := pdf.MeasureTextWidth(string(r) + "..."); err == nil && w <= width {
			break
		}
	}
	return string(r) + "..."
}
