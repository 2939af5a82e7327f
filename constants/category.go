package constants

// Category is an expense category label derived from filename keywords.
type Category string

const (
	Transporte  Category = "Transporte"
	Combustivel Category = "Combustível"
	Alimentacao Category = "Alimentação"
	Tecnologia  Category = "Tecnologia"
	Manutencao  Category = "Manutenção"
	Veiculos    Category = "Veículos"
)

var allCategories = []Category{
	Transporte,
	Combustivel,
	Alimentacao,
	Tecnologia,
	Manutencao,
	Veiculos,
}

// filename token -> category
var categoryKeywords = map[string]Category{
	"Locação":     Transporte,
	"Aluguel":     Transporte,
	"Combustivel": Combustivel,
	"Alimentação": Alimentacao,
	"Tecnologia":  Tecnologia,
	"Manutenção":  Manutencao,
	"Veiculos":    Veiculos,
}

// filename token -> payment status
var statusKeywords = map[string]string{
	"PG": PaymentPaid,
	"AG": PaymentScheduled,
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// CategoryForToken looks up an exact (case-sensitive) filename token.
func CategoryForToken(token string) (Category, bool) {
	c, ok := categoryKeywords[token]
	return c, ok
}

// StatusForToken looks up an exact (case-sensitive) filename token.
func StatusForToken(token string) (string, bool) {
	s, ok := statusKeywords[token]
	return s, ok
}
