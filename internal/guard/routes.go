package guard

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Routes is the route table.
type Routes struct {
	SignIn    string   `toml:"sign_in"`
	Home      string   `toml:"home"`
	Public    []string `toml:"public"`
	Protected []string `toml:"protected"`
}

// DefaultRoutes returns the dashboard's screens, including the Portuguese
// aliases the original links still use.
func DefaultRoutes() Routes {
	return Routes{
		SignIn: "/login",
		Home:   "/dashboard",
		Public: []string{
			"/login",
			"/register",
			"/forgot-password",
			"/reset-password",
			"/magic-link",
			"/cadastro",
			"/recuperar-senha",
			"/redefinir-senha",
		},
		Protected: []string{
			"/",
			"/dashboard",
			"/products",
			"/customers",
			"/transactions",
			"/geography",
			"/overview",
			"/daily",
			"/monthly",
			"/breakdown",
			"/admin",
			"/performance",
			"/produtos",
			"/clientes",
			"/transacoes",
			"/geografia",
			"/visao-geral",
			"/diario",
			"/mensal",
			"/detalhamento",
			"/administracao",
			"/desempenho",
		},
	}
}

// overlay is the file form. Extra routes are appended, sign-in and home
// replace the defaults when set.
type overlay struct {
	SignIn           string   `toml:"sign_in"`
	Home             string   `toml:"home"`
	ExtraPublic      []string `toml:"public"`
	ExtraProtected   []string `toml:"protected"`
	ReplacePublic    bool     `toml:"replace_public"`
	ReplaceProtected bool     `toml:"replace_protected"`
}

func mergeRoutes(base Routes, o overlay) Routes {
	result := base
	if o.SignIn != "" {
		result.SignIn = o.SignIn
	}
	if o.Home != "" {
		result.Home = o.Home
	}
	if o.ReplacePublic {
		result.Public = nil
	}
	if o.ReplaceProtected {
		result.Protected = nil
	}
	result.Public = append(append([]string(nil), result.Public...), o.ExtraPublic...)
	result.Protected = append(append([]string(nil), result.Protected...), o.ExtraProtected...)
	return result
}

// ParseRoutes applies a TOML overlay to base.
func ParseRoutes(base Routes, data []byte) (Routes, error) {
	var o overlay
	if err := toml.Unmarshal(data, &o); err != nil {
		return Routes{}, fmt.Errorf("parse routes: %w", err)
	}
	routes := mergeRoutes(base, o)
	if routes.SignIn == "" || routes.Home == "" {
		return Routes{}, fmt.Errorf("parse routes: sign_in and home are required")
	}
	return routes, nil
}

// LoadRoutes reads an overlay file. An empty path yields the defaults.
func LoadRoutes(path string) (Routes, error) {
	if path == "" {
		return DefaultRoutes(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Routes{}, fmt.Errorf("read routes: %w", err)
	}
	return ParseRoutes(DefaultRoutes(), data)
}
