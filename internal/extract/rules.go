package extract

import "regexp"

// Rule order is load-bearing everywhere in this file: lists are evaluated
// top to bottom and the first match wins. "A4" must run before the numeric
// size formats, "sem shrink" before the bare "shrink" keyword, and so on.

type productRule struct {
	re   *regexp.Regexp
	nome string
}

// productRules match the product family in a lowercased message. Group 1,
// when present, is an optional leading quantity ("10 banners").
var productRules = []productRule{
	{regexp.MustCompile(`\b(\d+\s*)?(livros?\s+grampo)\b`), "Livro Grampo"},
	{regexp.MustCompile(`\b(\d+\s*)?(revistas?\s+grampo)\b`), "Revista Grampo"},
	{regexp.MustCompile(`\b(\d+\s*)?(cadernos?\s+espiral)\b`), "Caderno Espiral"},
	{regexp.MustCompile(`\b(\d+\s*)?(cart(?:ão|ões|ao|oes)\s+de\s+visita)\b`), "Cartão de Visita"},
	{regexp.MustCompile(`\b(\d+\s*)?(banners?)\b`), "Banner"},
	{regexp.MustCompile(`\b(\d+\s*)?(flyers?)\b`), "Flyer"},
}

// sizeRules match a size token case-insensitively; the token is then
// normalized by normalizeSize.
var sizeRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(a4)\b`),
	regexp.MustCompile(`(?i)\b(a5)\b`),
	regexp.MustCompile(`(?i)\b(14\s*x\s*21)\b`),
	regexp.MustCompile(`(?i)\b(9\s*x\s*5)\b`),
	regexp.MustCompile(`(?i)\b(120\s*x\s*80)\b`),
	regexp.MustCompile(`(?i)\b(200\s*x\s*80)\b`),
}

// sizeCanonical maps a numeric prefix found in the matched token to its
// canonical label. Checked in order after the exact A4/A5 cases.
var sizeCanonical = []struct {
	prefix string
	label  string
}{
	{"14", "14x21"},
	{"9", "9x5"},
	{"120", "120x80"},
	{"200", "200x80"},
}

type optionRule struct {
	re    *regexp.Regexp
	label string
}

// optionRules map finish keywords to canonical option labels. Negated forms
// ("sem shrink", "sem verniz") come before the bare keyword so the shorter
// pattern cannot shadow them.
var optionRules = []optionRule{
	{regexp.MustCompile(`\bcom shrink\b`), "Com Shrink"},
	{regexp.MustCompile(`\bsem shrink\b`), "Sem Shrink"},
	{regexp.MustCompile(`\bshrink\b`), "Com Shrink"},
	{regexp.MustCompile(`\bcapa premium\b`), "Premium"},
	{regexp.MustCompile(`\bcapa comum\b`), "Comum"},
	{regexp.MustCompile(`\bpremium\b`), "Premium"},
	{regexp.MustCompile(`\bcomum\b`), "Comum"},
	{regexp.MustCompile(`\bsimples\b`), "Simples"},
	{regexp.MustCompile(`\bcom verniz\b`), "Com Verniz"},
	{regexp.MustCompile(`\bsem verniz\b`), "Sem Verniz"},
	{regexp.MustCompile(`\bverniz\b`), "Com Verniz"},
	{regexp.MustCompile(`\blona\b`), "Lona"},
	{regexp.MustCompile(`\bvinil\b`), "Vinil"},
	{regexp.MustCompile(`\bfosco\b`), "Fosco"},
}

const capWord = `[A-ZÁÀÂÃÉÈÊÍÌÓÒÔÕÚÙÇ][a-záàâãéèêíìóòôõúùç]+`

// nameRules try an explicit self-introduction, then a "nome:" label, then a
// bare sequence of capitalized words. Candidates still go through
// plausibleName before being accepted.
var nameRules = []*regexp.Regexp{
	regexp.MustCompile(`(?:[Mm]eu nome é|[Mm]e chamo|[Ee]u sou|[Ss]ou)\s+(` + capWord + `(?:\s+` + capWord + `)+)`),
	regexp.MustCompile(`(?:[Nn]ome)[:\s]+(` + capWord + `(?:\s+` + capWord + `)+)`),
	regexp.MustCompile(`(` + capWord + `(?:\s+` + capWord + `)+)`),
}

// productWords veto a name candidate that is really a product mention
// ("Livro Grampo" is not a person).
var productWords = []string{"livro", "revista", "caderno", "cartão", "cartao", "banner", "flyer"}

// addressRules try an explicit label first, then capitalized words followed
// by a street number. Candidates still go through plausibleAddress.
var addressRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:endereço|endereco|moro|reside|residencia)[:\s]+([^,\n]+(?:,\s*\d+)?)`),
	regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*,?\s*\d+)\b`),
}

var (
	cpfRe   = regexp.MustCompile(`\b\d{3}\.?\d{3}\.?\d{3}-?\d{2}\b`)
	cepRe   = regexp.MustCompile(`\b\d{5}-?\d{3}\b`)
	phoneRe = regexp.MustCompile(`\(?\d{2}\)?\s?\d{4,5}-?\d{4}`)
	qtyRe   = regexp.MustCompile(`\b(\d+)\s*(?:unidades?|peças?|exemplar(?:es)?)\b`)
	pagesRe = regexp.MustCompile(`\b(\d+)\s*(?:páginas?|folhas?)\b`)
	digitRe = regexp.MustCompile(`\D`)
)
