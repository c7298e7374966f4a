package entitlements

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Entitlement is the per-account-tier ceiling on daily user messages and the
// set of chat models the tier may select.
type Entitlement struct {
	MaxMessagesPerDay   int      `yaml:"max_messages_per_day"`
	AvailableChatModels []string `yaml:"available_chat_models"`
}

type Entitlements map[string]Entitlement

func Defaults() Entitlements {
	return Entitlements{
		"guest": {
			MaxMessagesPerDay:   10,
			AvailableChatModels: []string{"chat-model"},
		},
		"regular": {
			MaxMessagesPerDay:   50,
			AvailableChatModels: []string{"chat-model", "chat-model-reasoning"},
		},
	}
}

// AllowsModel reports whether the tier may select the logical model id. An
// empty list means no restriction.
func (e Entitlement) AllowsModel(id string) bool {
	if len(e.AvailableChatModels) == 0 {
		return true
	}
	for _, m := range e.AvailableChatModels {
		if m == id {
			return true
		}
	}
	return false
}

// Load returns the defaults, overlaid with the tiers defined in the YAML file
// at path when one is configured.
func Load(path string) (Entitlements, error) {
	ents := Defaults()
	if path == "" {
		return ents, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read entitlements file: %w", err)
	}
	var overrides Entitlements
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse entitlements file: %w", err)
	}
	for tier, ent := range overrides {
		ents[tier] = ent
	}
	return ents, nil
}

// For resolves a tier, falling back to the guest tier for unknown ones.
func (e Entitlements) For(userType string) Entitlement {
	if ent, ok := e[userType]; ok {
		return ent
	}
	return e["guest"]
}
