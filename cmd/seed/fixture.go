package main

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
	"gopkg.in/yaml.v3"
)

// fixture catálogo inicial: categorías y herramientas con su existencia.
type fixture struct {
	Categories []categoryFixture `yaml:"categories"`
	Tools      []toolFixture     `yaml:"tools"`
}

type categoryFixture struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type toolFixture struct {
	Code      string `yaml:"code"`
	Name      string `yaml:"name"`
	Category  string `yaml:"category"`
	Condition string `yaml:"condition"`
	Stock     int    `yaml:"stock"`
}

// seedNamespace hace que los IDs sean estables entre ejecuciones del seed.
var seedNamespace = uuid.MustParse("6f1c3c1e-6a43-4b8e-9d1f-3f0f1f8a2b51")

// decodeInput devuelve el YAML en UTF-8. Los fixtures exportados de hojas de cálculo
// antiguas vienen en ISO-8859-1; si los bytes no son UTF-8 válido se convierten.
func decodeInput(raw []byte) ([]byte, error) {
	if utf8.Valid(raw) {
		return raw, nil
	}
	r := transform.NewReader(bytes.NewReader(raw), charmap.ISO8859_1.NewDecoder())
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("convertir ISO-8859-1: %w", err)
	}
	return out, nil
}

func parseFixture(raw []byte) (*fixture, error) {
	data, err := decodeInput(raw)
	if err != nil {
		return nil, err
	}
	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decodificar YAML: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *fixture) validate() error {
	cats := make(map[string]bool, len(f.Categories))
	for _, c := range f.Categories {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("categoría sin nombre")
		}
		cats[c.Name] = true
	}
	codes := make(map[string]bool, len(f.Tools))
	for _, t := range f.Tools {
		if t.Code == "" || t.Name == "" {
			return fmt.Errorf("herramienta sin código o nombre")
		}
		if codes[t.Code] {
			return fmt.Errorf("código de herramienta duplicado: %s", t.Code)
		}
		codes[t.Code] = true
		if t.Stock < 0 {
			return fmt.Errorf("herramienta %s: stock negativo", t.Code)
		}
		if t.Category != "" && !cats[t.Category] {
			return fmt.Errorf("herramienta %s: categoría desconocida %q", t.Code, t.Category)
		}
	}
	return nil
}

// writeSQL escribe el script idempotente. Las herramientas nuevas entran con todo el
// stock disponible; si el código ya existe solo se actualizan nombre, categoría y condición.
func (f *fixture) writeSQL(w io.Writer) error {
	var b strings.Builder
	b.WriteString("-- Catálogo inicial de herramientas\n")
	b.WriteString("-- Generado por cmd/seed\n\n")

	cats := append([]categoryFixture(nil), f.Categories...)
	sort.Slice(cats, func(i, j int) bool { return cats[i].Name < cats[j].Name })
	if len(cats) > 0 {
		b.WriteString("-- 1. Categorías\n")
		b.WriteString("INSERT INTO categories (id, name, description) VALUES\n")
		for i, c := range cats {
			sep := ","
			if i == len(cats)-1 {
				sep = ""
			}
			fmt.Fprintf(&b, "  ('%s', '%s', '%s')%s\n",
				stableID("category", c.Name), escapeSQL(c.Name), escapeSQL(c.Description), sep)
		}
		b.WriteString("ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description;\n\n")
	}

	tools := append([]toolFixture(nil), f.Tools...)
	sort.Slice(tools, func(i, j int) bool { return tools[i].Code < tools[j].Code })
	if len(tools) > 0 {
		b.WriteString("-- 2. Herramientas\n")
	}
	for _, t := range tools {
		status := "out_of_stock"
		if t.Stock > 0 {
			status = "available"
		}
		category := "NULL"
		if t.Category != "" {
			category = fmt.Sprintf("(SELECT id FROM categories WHERE name = '%s')", escapeSQL(t.Category))
		}
		fmt.Fprintf(&b, "INSERT INTO tools (id, code, name, category_id, condition, total_stock, available_stock, repair_stock, status)\n")
		fmt.Fprintf(&b, "VALUES ('%s', '%s', '%s', %s, '%s', %d, %d, 0, '%s')\n",
			stableID("tool", t.Code), escapeSQL(t.Code), escapeSQL(t.Name), category,
			escapeSQL(t.Condition), t.Stock, t.Stock, status)
		b.WriteString("ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, category_id = EXCLUDED.category_id, condition = EXCLUDED.condition;\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func stableID(kind, key string) uuid.UUID {
	return uuid.NewSHA1(seedNamespace, []byte(kind+":"+key))
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
