// seed genera un script SQL para poblar categorías y herramientas a partir de un fixture YAML.
//
// Uso: go run ./cmd/seed [ruta/catalogo.yaml] [salida.sql]
// Por defecto lee catalogo.yaml del directorio actual y escribe seed_tools.sql en la raíz del módulo.
// El fixture puede venir en UTF-8 o ISO-8859-1.
package main

import (
	"fmt"
	"os"
	"path/filepath"
)

func main() {
	inPath := "catalogo.yaml"
	if len(os.Args) > 1 {
		inPath = os.Args[1]
	}
	outPath := filepath.Join(findModuleRoot(), "seed_tools.sql")
	if len(os.Args) > 2 {
		outPath = os.Args[2]
	}

	raw, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer fixture: %v\n", err)
		os.Exit(1)
	}
	f, err := parseFixture(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fixture inválido: %v\n", err)
		os.Exit(1)
	}

	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := f.writeSQL(out); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d categorías, %d herramientas\n", outPath, len(f.Categories), len(f.Tools))
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
