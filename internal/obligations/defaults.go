package obligations

import "github.com/yukikurage/tax-task-tracker/internal/models"

var quarterMonths = []int{1, 4, 7, 10}

// DefaultEntries is the built-in Brazilian calendar used until a feed
// refresh replaces it.
func DefaultEntries() []Entry {
	return []Entry{
		{
			Title:     "DCTFWeb",
			DueDay:    15,
			Notes:     "Declaração de débitos e créditos tributários federais previdenciários do mês anterior.",
			Category:  CategoryFederal,
			Source:    "Receita Federal",
			Frequency: models.FrequencyMonthly,
		},
		{
			Title:     "EFD-Reinf",
			DueDay:    15,
			Notes:     "Retenções e informações fiscais do mês anterior.",
			Category:  CategoryFederal,
			Source:    "Receita Federal",
			Frequency: models.FrequencyMonthly,
		},
		{
			Title:     "eSocial - Folha de pagamento",
			DueDay:    15,
			Notes:     "Eventos periódicos da folha do mês anterior.",
			Category:  CategoryLabor,
			Source:    "eSocial",
			Frequency: models.FrequencyMonthly,
		},
		{
			Title:        "DAS - Simples Nacional",
			DueDay:       20,
			Notes:        "Guia única do Simples Nacional referente ao mês anterior.",
			Category:     CategoryFederal,
			CompanyTypes: []string{CompanySimples},
			Source:       "Receita Federal",
			Frequency:    models.FrequencyMonthly,
		},
		{
			Title:        "DAS-MEI",
			DueDay:       20,
			Notes:        "Contribuição mensal do microempreendedor individual.",
			Category:     CategoryFederal,
			CompanyTypes: []string{CompanyMEI},
			Source:       "Receita Federal",
			Frequency:    models.FrequencyMonthly,
		},
		{
			Title:     "FGTS Digital",
			DueDay:    20,
			Notes:     "Recolhimento do FGTS da competência anterior.",
			Category:  CategoryLabor,
			Source:    "Ministério do Trabalho",
			Frequency: models.FrequencyMonthly,
		},
		{
			Title:     "IRRF - Retenções na fonte",
			DueDay:    20,
			Notes:     "Imposto de renda retido sobre salários e serviços do mês anterior.",
			Category:  CategoryFederal,
			Source:    "Receita Federal",
			Frequency: models.FrequencyMonthly,
		},
		{
			Title:        "PIS/COFINS",
			DueDay:       25,
			Notes:        "Contribuições apuradas sobre o faturamento do mês anterior.",
			Category:     CategoryFederal,
			CompanyTypes: []string{CompanyPresumido, CompanyReal},
			Source:       "Receita Federal",
			Frequency:    models.FrequencyMonthly,
		},
		{
			Title:        "EFD-Contribuições",
			DueDay:       14,
			Notes:        "Entrega até o 10º dia útil do segundo mês subsequente.",
			Category:     CategoryFederal,
			CompanyTypes: []string{CompanyPresumido, CompanyReal},
			Source:       "Receita Federal",
			Frequency:    models.FrequencyMonthly,
		},
		{
			Title:        "ICMS - Apuração mensal",
			DueDay:       10,
			Notes:        "Prazo varia por estado; conferir o regulamento local.",
			Category:     CategoryState,
			CompanyTypes: []string{CompanyPresumido, CompanyReal},
			Source:       "SEFAZ",
			Frequency:    models.FrequencyMonthly,
		},
		{
			Title:     "ISS - Serviços prestados",
			DueDay:    10,
			Notes:     "Prazo definido pelo município do prestador.",
			Category:  CategoryMunicipal,
			Source:    "Prefeitura",
			Frequency: models.FrequencyMonthly,
		},
		{
			Title:        "IRPJ - Apuração trimestral",
			DueDay:       31,
			Notes:        "Quota única ou primeira quota do trimestre encerrado.",
			Category:     CategoryFederal,
			CompanyTypes: []string{CompanyPresumido, CompanyReal},
			Source:       "Receita Federal",
			Months:       quarterMonths,
			Frequency:    models.FrequencyQuarterly,
		},
		{
			Title:        "CSLL - Apuração trimestral",
			DueDay:       31,
			Notes:        "Quota única ou primeira quota do trimestre encerrado.",
			Category:     CategoryFederal,
			CompanyTypes: []string{CompanyPresumido, CompanyReal},
			Source:       "Receita Federal",
			Months:       quarterMonths,
			Frequency:    models.FrequencyQuarterly,
		},
		{
			Title:     "Informe de Rendimentos",
			DueDay:    31,
			Notes:     "Entrega dos comprovantes de rendimentos aos funcionários e prestadores.",
			Category:  CategoryFederal,
			Source:    "Receita Federal",
			Months:    []int{2},
			Frequency: models.FrequencyYearly,
		},
		{
			Title:        "DEFIS",
			DueDay:       31,
			Notes:        "Declaração de informações socioeconômicas e fiscais do Simples Nacional.",
			Category:     CategoryFederal,
			CompanyTypes: []string{CompanySimples},
			Source:       "Receita Federal",
			Months:       []int{3},
			Frequency:    models.FrequencyYearly,
		},
		{
			Title:        "DASN-SIMEI",
			DueDay:       31,
			Notes:        "Declaração anual do microempreendedor individual.",
			Category:     CategoryFederal,
			CompanyTypes: []string{CompanyMEI},
			Source:       "Receita Federal",
			Months:       []int{5},
			Frequency:    models.FrequencyYearly,
		},
		{
			Title:        "ECD",
			DueDay:       30,
			Notes:        "Escrituração contábil digital do ano-calendário anterior.",
			Category:     CategoryFederal,
			CompanyTypes: []string{CompanyPresumido, CompanyReal},
			Source:       "SPED",
			Months:       []int{6},
			Frequency:    models.FrequencyYearly,
		},
		{
			Title:        "ECF",
			DueDay:       31,
			Notes:        "Escrituração contábil fiscal do ano-calendário anterior.",
			Category:     CategoryFederal,
			CompanyTypes: []string{CompanyPresumido, CompanyReal},
			Source:       "SPED",
			Months:       []int{7},
			Frequency:    models.FrequencyYearly,
		},
		{
			Title:     "13º salário - 1ª parcela",
			DueDay:    30,
			Category:  CategoryLabor,
			Source:    "CLT",
			Months:    []int{11},
			Frequency: models.FrequencyYearly,
		},
		{
			Title:     "13º salário - 2ª parcela",
			DueDay:    20,
			Category:  CategoryLabor,
			Source:    "CLT",
			Months:    []int{12},
			Frequency: models.FrequencyYearly,
		},
	}
}
