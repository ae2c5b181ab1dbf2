package xslsxGenerator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/KotFed0t/patrimoine_tracker_bot/internal/model"
	"github.com/KotFed0t/patrimoine_tracker_bot/utils"
	"github.com/xuri/excelize/v2"
)

type XSLSXGenerator struct{}

func New() *XSLSXGenerator {
	return &XSLSXGenerator{}
}

func (g *XSLSXGenerator) Generate(ctx context.Context, summary model.PortfolioSummary, distributions []model.Distribution) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XSLSXGenerator.Generate"

	if len(summary.Holdings) == 0 {
		return nil, "", errors.New("empty holdings")
	}

	slog.Debug("Generate start", slog.String("rqID", rqID), slog.String("op", op))

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("got error while closing file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	if err := g.fillPatrimoineSheet(ctx, f, summary); err != nil {
		return nil, "", err
	}

	if err := g.fillDistributionsSheet(ctx, f, distributions); err != nil {
		return nil, "", err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		slog.Error("got error while deleting Sheet1", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		slog.Error("got error while Saving file to bytes buffer", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	slog.Debug("Generate completed", slog.String("rqID", rqID), slog.String("op", op))

	return buf.Bytes(), ".xlsx", nil
}

func headerStyle(f *excelize.File, color string) (int, error) {
	return f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Font: &excelize.Font{
			Bold: true,
			Size: 11,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{color},
		},
	})
}

func (g *XSLSXGenerator) fillPatrimoineSheet(ctx context.Context, f *excelize.File, summary model.PortfolioSummary) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XSLSXGenerator.fillPatrimoineSheet"

	sheetName := "Patrimoine"
	_, err := f.NewSheet(sheetName)
	if err != nil {
		slog.Error("got error while creating NewSheet", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	// synthèse par catégorie
	if err := f.MergeCell(sheetName, "A1", "F1"); err != nil {
		return err
	}

	f.SetCellValue(sheetName, "A1", fmt.Sprintf("Patrimoine total : %s EUR", summary.TotalValue.StringFixed(2)))

	styleID, err := headerStyle(f, "#cfe2f3")
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", "A1", styleID); err != nil {
		return err
	}

	_ = f.SetCellStr(sheetName, "A2", "catégorie")
	_ = f.SetCellStr(sheetName, "B2", "actifs")
	_ = f.SetCellStr(sheetName, "C2", "valeur (EUR)")
	_ = f.SetCellStr(sheetName, "D2", "part (%)")
	_ = f.SetCellStr(sheetName, "E2", "performance (EUR)")
	_ = f.SetCellStr(sheetName, "F2", "performance (%)")

	rowNum := 2
	for _, cat := range summary.Categories {
		if cat.AssetCount == 0 {
			continue
		}
		rowNum++
		_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", rowNum), cat.Category.Title())
		_ = f.SetCellInt(sheetName, fmt.Sprintf("B%d", rowNum), int64(cat.AssetCount))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", rowNum), cat.TotalValue.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", rowNum), cat.PercentageOfTotal.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", rowNum), cat.Performance.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", rowNum), cat.PerformancePct.InexactFloat64())
	}

	// détail des actifs
	rowNum += 3

	if err := f.MergeCell(sheetName, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("F%d", rowNum)); err != nil {
		return err
	}

	f.SetCellValue(sheetName, fmt.Sprintf("A%d", rowNum), "Détail des actifs")

	styleID, err = headerStyle(f, "#d9ead3")
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("A%d", rowNum), styleID); err != nil {
		return err
	}

	rowNum++
	_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", rowNum), "nom")
	_ = f.SetCellStr(sheetName, fmt.Sprintf("B%d", rowNum), "catégorie")
	_ = f.SetCellStr(sheetName, fmt.Sprintf("C%d", rowNum), "groupe")
	_ = f.SetCellStr(sheetName, fmt.Sprintf("D%d", rowNum), "valeur (EUR)")
	_ = f.SetCellStr(sheetName, fmt.Sprintf("E%d", rowNum), "investi (EUR)")
	_ = f.SetCellStr(sheetName, fmt.Sprintf("F%d", rowNum), "remarque")

	for _, v := range summary.Holdings {
		rowNum++
		base := v.Holding.Base()
		_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", rowNum), base.Name)
		_ = f.SetCellStr(sheetName, fmt.Sprintf("B%d", rowNum), v.Holding.Category().Title())
		_ = f.SetCellStr(sheetName, fmt.Sprintf("C%d", rowNum), base.SubGroup)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", rowNum), v.CurrentValue.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", rowNum), v.InvestedValue.InexactFloat64())

		switch {
		case v.PriceErr != nil:
			_ = f.SetCellStr(sheetName, fmt.Sprintf("F%d", rowNum), "prix indisponible, dernière valeur connue")
		case v.StaleRate:
			_ = f.SetCellStr(sheetName, fmt.Sprintf("F%d", rowNum), "taux de change inconnu")
		}
	}

	return nil
}

func (g *XSLSXGenerator) fillDistributionsSheet(ctx context.Context, f *excelize.File, distributions []model.Distribution) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XSLSXGenerator.fillDistributionsSheet"

	sheetName := "Répartition"
	_, err := f.NewSheet(sheetName)
	if err != nil {
		slog.Error("got error while creating NewSheet", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	styleID, err := headerStyle(f, "#f9cb9c")
	if err != nil {
		return err
	}

	rowNum := 1
	for _, dist := range distributions {
		if err := f.MergeCell(sheetName, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("C%d", rowNum)); err != nil {
			return err
		}

		f.SetCellValue(sheetName, fmt.Sprintf("A%d", rowNum), dist.Title)

		if err := f.SetCellStyle(sheetName, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("A%d", rowNum), styleID); err != nil {
			return err
		}

		rowNum++
		_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", rowNum), "poche")
		_ = f.SetCellStr(sheetName, fmt.Sprintf("B%d", rowNum), "valeur (EUR)")
		_ = f.SetCellStr(sheetName, fmt.Sprintf("C%d", rowNum), "actifs")

		for _, bucket := range dist.Buckets {
			rowNum++
			_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", rowNum), bucket.Name)
			_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowNum), bucket.TotalValue.InexactFloat64())
			_ = f.SetCellStr(sheetName, fmt.Sprintf("C%d", rowNum), strings.Join(bucket.AssetNames, ", "))
		}

		rowNum += 2
	}

	return nil
}
