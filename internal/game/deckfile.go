package game

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DeckFile is the YAML layout for fixed decks.
//
//	decks:
//	  - name: kings
//	    cards: ["K<>", "Kcc", "K<3", "K<<"]
//
// Cards are listed bottom first, so the last card is dealt first.
type DeckFile struct {
	Decks []DeckEntry `yaml:"decks"`
}

// DeckEntry is one named deck.
type DeckEntry struct {
	Name  string   `yaml:"name"`
	Cards []string `yaml:"cards"`
}

// ParseDeckFile parses YAML deck data into decks keyed by name.
func ParseDeckFile(data []byte) (map[string]Deck, error) {
	var df DeckFile
	if err := yaml.Unmarshal(data, &df); err != nil {
		return nil, fmt.Errorf("parse deck YAML: %w", err)
	}

	decks := make(map[string]Deck, len(df.Decks))
	for _, entry := range df.Decks {
		if _, dup := decks[entry.Name]; dup {
			return nil, fmt.Errorf("deck %q defined twice", entry.Name)
		}
		cards := make([]Card, 0, len(entry.Cards))
		seen := make(map[Card]struct{}, len(entry.Cards))
		for _, s := range entry.Cards {
			card, err := ParseCard(s)
			if err != nil {
				return nil, fmt.Errorf("deck %q: %w", entry.Name, err)
			}
			if _, dup := seen[card]; dup {
				return nil, fmt.Errorf("deck %q: card %v listed twice", entry.Name, card)
			}
			seen[card] = struct{}{}
			cards = append(cards, card)
		}
		decks[entry.Name] = NewDeckFrom(cards...)
	}
	return decks, nil
}

// LoadDeck reads the deck called name from the YAML file at path.
func LoadDeck(path, name string) (Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Deck{}, err
	}
	decks, err := ParseDeckFile(data)
	if err != nil {
		return Deck{}, err
	}
	deck, ok := decks[name]
	if !ok {
		return Deck{}, fmt.Errorf("deck %q not found in %s", name, path)
	}
	return deck, nil
}
