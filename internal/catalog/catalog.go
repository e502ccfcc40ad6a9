// Package catalog holds the sales knowledge the agent is parameterized
// with: plan table, coverage regions, persona name pool, and the human
// support contact. A YAML file can override the compiled-in defaults.
package catalog

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Plan is one monthly advertising plan.
type Plan struct {
	Name         string `yaml:"name"`
	Price        string `yaml:"price"`
	Cars         int    `yaml:"cars"`
	MonthlyViews int    `yaml:"monthlyViews"`
	Note         string `yaml:"note,omitempty"`
}

// Catalog is the full sales parameter set.
type Catalog struct {
	Personas          []string `yaml:"personas"`
	Plans             []Plan   `yaml:"plans"`
	Regions           []string `yaml:"regions"`
	HumanSupportPhone string   `yaml:"humanSupportPhone"`
	ViewsPerCar       int      `yaml:"viewsPerCar"`
}

// Default returns the compiled-in catalog matching the published plan table.
func Default() *Catalog {
	return &Catalog{
		Personas: []string{
			"Ana", "Bruno", "Camila", "Diego", "Fernanda",
			"Gustavo", "Helena", "Igor", "Juliana", "Lucas",
		},
		Plans: []Plan{
			{Name: "Piloto", Price: "R$ 89,90/mês", Cars: 1, MonthlyViews: 1100, Note: "Ideal para testar."},
			{Name: "Start", Price: "R$ 189,00/mês", Cars: 3, MonthlyViews: 3300, Note: "Validação para pequenos negócios."},
			{Name: "Aceleração", Price: "R$ 399,00/mês", Cars: 10, MonthlyViews: 11000, Note: "Melhor custo-benefício!"},
			{Name: "Turbo", Price: "R$ 599,00/mês", Cars: 20, MonthlyViews: 22000, Note: "Domínio de bairro."},
			{Name: "Dominador", Price: "R$ 999,00/mês", Cars: 50, MonthlyViews: 55000, Note: "Domínio da cidade."},
		},
		Regions: []string{
			"Porto Alegre", "Canoas", "Novo Hamburgo", "São Leopoldo", "Gravataí",
			"Esteio", "Sapucaia", "Campo Bom", "Cachoeirinha", "Alvorada",
			"Viamão", "Eldorado", "Guaíba",
		},
		HumanSupportPhone: "(51) 99300-1678",
		ViewsPerCar:       1100,
	}
}

// Load reads a catalog from a YAML file, falling back to Default when path
// is empty. Fields omitted in the file keep their default values.
func Load(path string) (*Catalog, error) {
	cat := Default()
	if path == "" {
		return cat, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cat); err != nil {
		return nil, fmt.Errorf("parse catalog file %s: %w", path, err)
	}
	if len(cat.Personas) == 0 || len(cat.Plans) == 0 {
		return nil, fmt.Errorf("catalog file %s: personas and plans must not be empty", path)
	}
	return cat, nil
}

// FindPlan resolves a plan by approximate name: "plano aceleração",
// "ACELERACAO" and "Aceleração" all match the Aceleração plan.
func (c *Catalog) FindPlan(name string) (Plan, bool) {
	needle := foldPlanName(name)
	if needle == "" {
		return Plan{}, false
	}
	for _, p := range c.Plans {
		if strings.Contains(needle, foldPlanName(p.Name)) {
			return p, true
		}
	}
	return Plan{}, false
}

// foldPlanName lowercases and strips the accents that appear in plan names
// so lookups survive customers typing without diacritics.
func foldPlanName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	replacer := strings.NewReplacer(
		"ç", "c", "ã", "a", "á", "a", "â", "a",
		"é", "e", "ê", "e", "í", "i", "ó", "o",
		"ô", "o", "õ", "o", "ú", "u",
	)
	return replacer.Replace(s)
}

// FormatViews renders a view count the way the sales copy does: 11000
// becomes "11.000".
func FormatViews(views int) string {
	s := strconv.Itoa(views)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
