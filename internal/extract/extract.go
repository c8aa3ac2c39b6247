// Package extract pulls structured order fields out of free-text chat
// messages. Extraction is a pure function of (message, known fields): a
// field already present on the session is never touched, so running the
// same message twice yields no second change.
package extract

import (
	"strconv"
	"strings"

	"github.com/papelariadigital/atendente/internal/models"
)

// FromMessage returns the newly discovered field values for the message.
// The result contains only fields currently empty on known; it is empty
// when nothing new was found.
func FromMessage(message string, known *models.CustomerSession) models.FieldUpdates {
	var upd models.FieldUpdates
	lower := strings.ToLower(message)

	if known.Produto == "" {
		for _, rule := range productRules {
			m := rule.re.FindStringSubmatch(lower)
			if m == nil {
				continue
			}
			upd.Produto = ptr(rule.nome)
			// The same match may carry a leading quantity.
			if qty := strings.TrimSpace(m[1]); qty != "" && known.Quantidade == 0 {
				if n, err := strconv.Atoi(qty); err == nil && n > 0 {
					upd.Quantidade = &n
				}
			}
			break
		}
	}

	if known.Tamanho == "" {
		for _, re := range sizeRules {
			if m := re.FindStringSubmatch(message); m != nil {
				if size := normalizeSize(m[1]); size != "" {
					upd.Tamanho = ptr(size)
				}
				break
			}
		}
	}

	if known.Opcoes == "" {
		for _, rule := range optionRules {
			if rule.re.MatchString(lower) {
				upd.Opcoes = ptr(rule.label)
				break
			}
		}
	}

	if known.Nome == "" {
		for _, re := range nameRules {
			m := re.FindStringSubmatch(message)
			if m == nil {
				continue
			}
			if nome := strings.TrimSpace(m[1]); plausibleName(nome) {
				upd.Nome = ptr(nome)
				break
			}
		}
	}

	if known.EnderecoCompleto == "" {
		for _, re := range addressRules {
			m := re.FindStringSubmatch(message)
			if m == nil {
				continue
			}
			if end := strings.TrimSpace(m[1]); plausibleAddress(end) {
				upd.EnderecoCompleto = ptr(end)
				break
			}
		}
	}

	if known.CPF == "" {
		if m := cpfRe.FindString(message); m != "" {
			if digits := onlyDigits(m); len(digits) == 11 {
				upd.CPF = ptr(digits)
			}
		}
	}

	if known.CEP == "" {
		if m := cepRe.FindString(message); m != "" {
			if digits := onlyDigits(m); len(digits) == 8 {
				upd.CEP = ptr(digits)
			}
		}
	}

	if known.Telefone == "" {
		if m := phoneRe.FindString(message); m != "" {
			if digits := onlyDigits(m); len(digits) >= 10 {
				upd.Telefone = ptr(digits)
			}
		}
	}

	if known.Quantidade == 0 && upd.Quantidade == nil {
		if m := qtyRe.FindStringSubmatch(lower); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				upd.Quantidade = &n
			}
		}
	}

	if known.NumeroPaginas == 0 {
		if m := pagesRe.FindStringSubmatch(lower); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				upd.NumeroPaginas = &n
			}
		}
	}

	return upd
}

// normalizeSize maps a matched size token to its canonical label: exact
// A4/A5 first, then the fixed numeric-prefix list.
func normalizeSize(token string) string {
	up := strings.ToUpper(strings.ReplaceAll(token, " ", ""))
	if up == "A4" || up == "A5" {
		return up
	}
	for _, c := range sizeCanonical {
		if strings.HasPrefix(up, c.prefix) {
			return c.label
		}
	}
	return ""
}

// plausibleName requires at least two words and vetoes product mentions, so
// "Livro Grampo" never becomes a customer name.
func plausibleName(s string) bool {
	if len(strings.Fields(s)) < 2 {
		return false
	}
	lower := strings.ToLower(s)
	for _, w := range productWords {
		if strings.Contains(lower, w) {
			return false
		}
	}
	return true
}

// plausibleAddress requires a street number and a minimum length.
func plausibleAddress(s string) bool {
	if len(s) <= 5 {
		return false
	}
	return strings.ContainsAny(s, "0123456789")
}

func onlyDigits(s string) string { return digitRe.ReplaceAllString(s, "") }

func ptr(s string) *string { return &s }
