package services

import (
	"fmt"
	"strings"

	"github.com/papelariadigital/atendente/internal/models"
)

// CatalogUnavailableText is shown in place of the catalog when
// produtos.json cannot be loaded; conversation continues without pricing.
const CatalogUnavailableText = "Erro ao carregar catálogo de produtos."

// BuildSystemPrompt assembles the attendant's system instruction: the
// catalog text plus a summary of what has already been collected and what
// is still missing, so the model never re-asks answered questions.
func BuildSystemPrompt(catalogText string, sess *models.CustomerSession) string {
	var ctx strings.Builder

	filled := filledInfo(sess)
	if len(filled) > 0 {
		ctx.WriteString("\n\nINFORMAÇÕES JÁ COLETADAS DO CLIENTE:\n")
		for _, info := range filled {
			fmt.Fprintf(&ctx, "- %s\n", info)
		}
	}

	if missing := sess.MissingFields(); len(missing) > 0 {
		ctx.WriteString("\nCAMPOS QUE AINDA PRECISAM SER COLETADOS:\n")
		for _, field := range missing {
			fmt.Fprintf(&ctx, "- %s\n", field)
		}
	}

	return fmt.Sprintf(`Você é um atendente virtual inteligente da 'Papelaria Digital', especializado em atendimento completo de vendas.

CATÁLOGO DE PRODUTOS:
%s
%s
INSTRUÇÕES IMPORTANTES:
1. NUNCA repita perguntas sobre informações já coletadas (veja lista acima).

2. Foque apenas nos campos que ainda estão faltando.

3. Seja inteligente para interpretar variações, erros de digitação e sinônimos dos produtos.

4. Se um campo já está preenchido, NÃO pergunte novamente sobre ele.

5. Quando tiver TODAS as informações obrigatórias, retorne um JSON com a seguinte estrutura:
{
    "action": "generate_pix",
    "data": {
        "produto": "nome do produto",
        "tamanho": "tamanho selecionado",
        "opcoes": "opções selecionadas",
        "quantidade": numero,
        "nome": "nome completo",
        "cpf": "cpf sem pontuação",
        "endereco": "endereço completo",
        "cep": "cep sem pontuação",
        "valor_produto": valor_do_produto,
        "descricao": "descrição do pedido"
    }
}

6. Mantenha um tom amigável e profissional, como um verdadeiro atendente de papelaria.

7. Ajude o cliente a escolher produtos adequados às suas necessidades.

8. Se o cliente perguntar sobre prazo de entrega, informe que será calculado após confirmar o endereço.

9. Seja preciso com os preços consultando sempre o catálogo fornecido.

IMPORTANTE: Só gere o JSON de ação quando TODAS as informações obrigatórias estiverem coletadas.`, catalogText, ctx.String())
}

func filledInfo(sess *models.CustomerSession) []string {
	var filled []string
	add := func(label, value string) {
		if value != "" {
			filled = append(filled, label+": "+value)
		}
	}

	add("Produto", sess.Produto)
	add("Tamanho", sess.Tamanho)
	add("Opções", sess.Opcoes)
	if sess.Quantidade > 0 {
		filled = append(filled, fmt.Sprintf("Quantidade: %d", sess.Quantidade))
	}
	if sess.NumeroPaginas > 0 {
		filled = append(filled, fmt.Sprintf("Número de páginas: %d", sess.NumeroPaginas))
	}
	add("Nome", sess.Nome)
	add("CPF", sess.CPF)
	add("Endereço", sess.EnderecoCompleto)
	add("CEP", sess.CEP)
	return filled
}
