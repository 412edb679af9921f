package refdata

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"

	dealerrors "sjsage522/dealpicker/pkg/errors"

	"sjsage522/dealpicker/internal/model"
	"sjsage522/dealpicker/internal/platform"
)

const (
	platformRulesFile = "platform-rules.json"
	creditCardsFile   = "credit-cards.json"
	affiliateFile     = "affiliate-links.json"
)

//go:embed data/*.json
var defaultData embed.FS

// Load reads the reference data from dir, or the embedded defaults when dir
// is empty
func Load(dir string) (*Catalog, error) {
	if dir == "" {
		sub, err := fs.Sub(defaultData, "data")
		if err != nil {
			return nil, dealerrors.NewConfigLoad("open embedded reference data", err)
		}
		return LoadFS(sub)
	}
	return LoadFS(os.DirFS(dir))
}

// LoadFS reads the three reference files from fsys
func LoadFS(fsys fs.FS) (*Catalog, error) {
	var rawRules map[platform.ID]platform.Rule
	if err := readJSON(fsys, platformRulesFile, &rawRules); err != nil {
		return nil, err
	}

	var cards []model.CreditCard
	if err := readJSON(fsys, creditCardsFile, &cards); err != nil {
		return nil, err
	}

	var rawTemplates map[platform.ID]AffiliateTemplate
	if err := readJSON(fsys, affiliateFile, &rawTemplates); err != nil {
		return nil, err
	}

	// Keep declaration order so validation errors are stable
	rules := make([]platform.Rule, 0, len(rawRules))
	for _, id := range platform.Supported {
		if rule, ok := rawRules[id]; ok {
			if err := fillRuleID(id, &rule); err != nil {
				return nil, err
			}
			rules = append(rules, rule)
		}
	}
	for id, rule := range rawRules {
		if !platform.IsSupported(id) {
			rule.ID = id
			rules = append(rules, rule)
		}
	}

	templates := make(map[platform.ID]string, len(rawTemplates))
	for id, t := range rawTemplates {
		templates[id] = t.Template
	}

	return NewCatalog(rules, cards, templates)
}

func fillRuleID(key platform.ID, rule *platform.Rule) error {
	if rule.ID == "" {
		rule.ID = key
		return nil
	}
	if rule.ID != key {
		return dealerrors.NewConfigLoad(fmt.Sprintf("platform rule keyed %q declares id %q", key, rule.ID), nil)
	}
	return nil
}

func readJSON(fsys fs.FS, name string, v interface{}) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return dealerrors.NewConfigLoad("read "+name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return dealerrors.NewConfigLoad("decode "+name, err)
	}
	return nil
}
