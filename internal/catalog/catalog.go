// Package catalog builds the in-memory price index from the flat
// produtos.json rows and answers (produto, tamanho, opcao) price lookups.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Row is one line of produtos.json as exported from the price sheet.
type Row struct {
	Produto      string `json:"Produto"`
	Tamanho      string `json:"Tamanho"`
	Opcao        string `json:"Opção"`
	PrecoUnidade string `json:"Preço/Unidade"` // "R$ 35,50" or "-" when priced elsewhere
	Campo        string `json:"Campo"`
}

type Option struct {
	Nome  string
	Preco float64
	Campo string
}

type Size struct {
	Nome   string
	Opcoes []Option
}

type Product struct {
	Nome     string
	Tamanhos []Size
}

// Index is the nested product -> size -> option lookup structure. It is
// rebuilt per access and never shared across requests.
type Index struct {
	Produtos []Product
}

// Build folds the flat rows into the nested index, preserving first-seen
// order of products and sizes. A row with an unparseable price fails the
// whole build.
func Build(rows []Row) (*Index, error) {
	idx := &Index{}
	byProduct := map[string]int{}
	bySize := map[string]map[string]int{}

	for _, row := range rows {
		preco, err := parsePreco(row.PrecoUnidade)
		if err != nil {
			return nil, fmt.Errorf("produto %q tamanho %q: %w", row.Produto, row.Tamanho, err)
		}

		pi, ok := byProduct[row.Produto]
		if !ok {
			pi = len(idx.Produtos)
			byProduct[row.Produto] = pi
			bySize[row.Produto] = map[string]int{}
			idx.Produtos = append(idx.Produtos, Product{Nome: row.Produto})
		}

		si, ok := bySize[row.Produto][row.Tamanho]
		if !ok {
			si = len(idx.Produtos[pi].Tamanhos)
			bySize[row.Produto][row.Tamanho] = si
			idx.Produtos[pi].Tamanhos = append(idx.Produtos[pi].Tamanhos, Size{Nome: row.Tamanho})
		}

		idx.Produtos[pi].Tamanhos[si].Opcoes = append(idx.Produtos[pi].Tamanhos[si].Opcoes, Option{
			Nome:  row.Opcao,
			Preco: preco,
			Campo: row.Campo,
		})
	}

	return idx, nil
}

// LoadFile reads the flat JSON rows from path and builds the index.
func LoadFile(path string) (*Index, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var rows []Row
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	return Build(rows)
}

// Lookup resolves the catalog triple to its option record. Matching is
// exact, except a requested "Livro Grampo" also matches any product whose
// name contains that substring (the grampo family is split across rows).
func (i *Index) Lookup(produto, tamanho, opcao string) (Option, bool) {
	for _, p := range i.Produtos {
		if p.Nome != produto && !(strings.Contains(produto, "Livro Grampo") && strings.Contains(p.Nome, "Livro Grampo")) {
			continue
		}
		for _, t := range p.Tamanhos {
			if t.Nome != tamanho {
				continue
			}
			for _, o := range t.Opcoes {
				if o.Nome == opcao {
					return o, true
				}
			}
		}
	}
	return Option{}, false
}

// Render formats the index as the prompt catalog text.
func (i *Index) Render() string {
	var b strings.Builder
	b.WriteString("CATÁLOGO DE PRODUTOS DA PAPELARIA DIGITAL:\n\n")
	for n, p := range i.Produtos {
		fmt.Fprintf(&b, "%d. %s\n", n+1, p.Nome)
		for _, t := range p.Tamanhos {
			fmt.Fprintf(&b, "   Tamanho: %s\n", t.Nome)
			for _, o := range t.Opcoes {
				fmt.Fprintf(&b, "     - %s: R$ %.2f\n", o.Nome, o.Preco)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// parsePreco converts the localized currency string to a float. The "-"
// placeholder means the row is priced per page elsewhere and parses to 0.
func parsePreco(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(s, "R$", ""), ",", "."))
	if s == "-" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("preço inválido %q", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("preço negativo %q", s)
	}
	return v, nil
}
