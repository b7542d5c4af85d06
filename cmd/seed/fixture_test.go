package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

const sampleFixture = `
categories:
  - name: Eléctricas
    description: Taladros y pulidoras
  - name: Manuales
tools:
  - code: BOR-01
    name: Taladro percutor
    category: Eléctricas
    condition: nuevo
    stock: 4
  - code: MAN-02
    name: Llave d'Alemania
    category: Manuales
    stock: 0
`

func TestParseFixture_UTF8(t *testing.T) {
	f, err := parseFixture([]byte(sampleFixture))
	require.NoError(t, err)
	require.Len(t, f.Categories, 2)
	require.Len(t, f.Tools, 2)
	assert.Equal(t, "Eléctricas", f.Categories[0].Name)
	assert.Equal(t, 4, f.Tools[0].Stock)
}

func TestParseFixture_ISO88591(t *testing.T) {
	latin, err := charmap.ISO8859_1.NewEncoder().String(sampleFixture)
	require.NoError(t, err)

	f, err := parseFixture([]byte(latin))
	require.NoError(t, err)
	assert.Equal(t, "Eléctricas", f.Categories[0].Name)
	assert.Equal(t, "Eléctricas", f.Tools[0].Category)
}

func TestParseFixture_Invalido(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"codigo duplicado", "tools:\n  - {code: A, name: x, stock: 1}\n  - {code: A, name: y, stock: 1}\n"},
		{"stock negativo", "tools:\n  - {code: A, name: x, stock: -1}\n"},
		{"categoria desconocida", "tools:\n  - {code: A, name: x, category: Nope, stock: 1}\n"},
		{"sin nombre", "tools:\n  - {code: A, stock: 1}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFixture([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestWriteSQL(t *testing.T) {
	f, err := parseFixture([]byte(sampleFixture))
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, f.writeSQL(&sb))
	sql := sb.String()

	assert.Contains(t, sql, "INSERT INTO categories (id, name, description) VALUES")
	assert.Contains(t, sql, "'BOR-01', 'Taladro percutor', (SELECT id FROM categories WHERE name = 'Eléctricas'), 'nuevo', 4, 4, 0, 'available'")
	assert.Contains(t, sql, "'Llave d''Alemania'")
	assert.Contains(t, sql, "0, 0, 0, 'out_of_stock'")
	assert.Less(t, strings.Index(sql, "BOR-01"), strings.Index(sql, "MAN-02"))

	var again strings.Builder
	require.NoError(t, f.writeSQL(&again))
	assert.Equal(t, sql, again.String(), "IDs estables entre ejecuciones")
}
