// Package filename recovers structured hints (dates, amounts, cost centers,
// categories) from document filenames. It is the cascade's last resort and
// never fails.
package filename

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/core/ocr"
)

// StrategyName identifies results produced from the filename alone.
const StrategyName = "FILENAME_ANALYSIS"

const (
	confidenceRich = 0.8 // at least richFieldCount lines extracted
	confidencePoor = 0.5
	richFieldCount = 3
)

var (
	reDate       = regexp.MustCompile(`(\d{2})[./\-](\d{2})[./\-](\d{4})`)
	reMoney      = regexp.MustCompile(`R\$\s*(\d{1,3}(?:[.,]\d{3})*(?:[.,]\d{2}))`)
	reDateToken  = regexp.MustCompile(`^\d{2}[./\-]\d{2}[./\-]\d{4}$`)
	reCostCenter = regexp.MustCompile(`(?i)^[A-Z]{2,4}\d*$`)
	reExt        = regexp.MustCompile(`^\.[A-Za-z][A-Za-z0-9]{0,4}$`)
	reSeparators = regexp.MustCompile(`[_\-]`)
)

// Fields is the machine-readable part of the report. Field order is the JSON order.
type Fields struct {
	DataVencimento string `json:"data_vencimento,omitempty"`
	Valor          string `json:"valor,omitempty"`
	Status         string `json:"status,omitempty"`
	CentroCusto    string `json:"centro_custo,omitempty"`
	Categoria      string `json:"categoria,omitempty"`
	Descricao      string `json:"descricao,omitempty"`
}

// Analyzer is the FilenameHeuristicExtractor.
type Analyzer struct {
	schema *jsonschema.Schema
	logger *slog.Logger
}

func NewAnalyzer(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	schema, err := compileSchema(BuildFieldsJSONSchema())
	if err != nil {
		logger.Error("filename fields schema unavailable; skipping validation", "error", err)
	}
	return &Analyzer{schema: schema, logger: logger}
}

// Extract builds a report from the file's base name. It never fails.
func (a *Analyzer) Extract(path string) ocr.ExtractionResult {
	name := baseName(path)
	fields, lines := Analyze(name)

	payload, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		// Fields holds only strings; keep the report usable anyway.
		payload = []byte("{}")
	}
	if a.schema != nil {
		if err := validate(a.schema, payload); err != nil {
			a.logger.Warn("filename fields failed schema validation", "filename", name, "error", err)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "DOCUMENTO: %s\n\n", name)
	b.WriteString("DADOS EXTRAÍDOS DO NOME DO ARQUIVO:\n")
	for _, ln := range lines {
		b.WriteString("- ")
		b.WriteString(ln)
		b.WriteByte('\n')
	}
	b.WriteString("\nDADOS ESTRUTURADOS PARA IA:\n")
	b.Write(payload)

	conf := confidencePoor
	if len(lines) >= richFieldCount {
		conf = confidenceRich
	}
	res := ocr.NewResult(b.String(), conf, StrategyName)
	res.Metadata["fields_extracted"] = fmt.Sprint(len(lines))

	a.logger.Debug("filename analysis done", "filename", name, "fields", len(lines), "confidence", conf)
	return res
}

// Analyze parses a filename (extension already stripped) into structured
// fields and the human-readable lines describing them.
func Analyze(name string) (Fields, []string) {
	var (
		f     Fields
		lines []string
	)

	dates := reDate.FindAllStringSubmatch(name, -1)
	if len(dates) > 0 {
		f.DataVencimento = formatDate(dates[0])
		lines = append(lines, "Data de Vencimento: "+f.DataVencimento)
		if len(dates) > 1 {
			for i, m := range dates {
				lines = append(lines, fmt.Sprintf("Data %d: %s", i+1, formatDate(m)))
			}
		}
	}

	if m := reMoney.FindStringSubmatch(name); m != nil {
		f.Valor = "R$ " + m[1]
		lines = append(lines, "Valor: "+f.Valor)
	}

	var desc []string
	for _, part := range strings.Split(name, "_") {
		if part == "" || reDateToken.MatchString(part) || strings.HasPrefix(part, "R$") {
			continue
		}
		if status, ok := constants.StatusForToken(part); ok {
			f.Status = status
			lines = append(lines, "Status: "+status)
			continue
		}
		if cat, ok := constants.CategoryForToken(part); ok {
			f.Categoria = string(cat)
			lines = append(lines, "Categoria: "+f.Categoria)
			continue
		}
		if reCostCenter.MatchString(part) {
			f.CentroCusto = strings.ToUpper(part)
			lines = append(lines, "Centro de Custo: "+f.CentroCusto)
			continue
		}
		if utf8.RuneCountInString(part) > 2 {
			desc = append(desc, reSeparators.ReplaceAllString(part, " "))
		}
	}
	if len(desc) > 0 {
		f.Descricao = strings.Join(desc, " ")
		lines = append(lines, "Descrição: "+f.Descricao)
	}
	return f, lines
}

func formatDate(m []string) string {
	return m[1] + "/" + m[2] + "/" + m[3]
}

// baseName strips the directory and a real extension. "R$1.450,00" has no extension.
func baseName(path string) string {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); reExt.MatchString(ext) {
		return strings.TrimSuffix(base, ext)
	}
	return base
}
