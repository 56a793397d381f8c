package nlp

import (
	"fmt"
	"regexp"
	"strings"
)

// EntityType classifies a recognized entity.
type EntityType int

const (
	EntityPerson EntityType = iota // Personal name after "with"/"עם"
	EntityOrg                      // Organization or group name
	EntityPlace                    // Place, venue, or facility
	EntityEvent                    // Named event (conference, summit)
)

var entityTypeNames = [...]string{
	EntityPerson: "Person",
	EntityOrg:    "Org",
	EntityPlace:  "Place",
	EntityEvent:  "Event",
}

// String returns the name of the entity type.
func (t EntityType) String() string {
	if int(t) >= 0 && int(t) < len(entityTypeNames) {
		return entityTypeNames[t]
	}
	return fmt.Sprintf("EntityType(%d)", int(t))
}

// Entity is a recognized named entity.
type Entity struct {
	Text string
	Type EntityType
}

var (
	// Capitalization is meaningful here, so these run on the raw message,
	// not the normalized one.
	personPattern       = regexp.MustCompile(`(?:[Ww]ith|w/)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`)
	hebrewPersonPattern = regexp.MustCompile(`עם\s+([\x{0590}-\x{05FF}]{2,})`)
	orgPattern          = regexp.MustCompile(`([A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+)?)\s+(?:[Tt]eam|[Dd]epartment|[Gg]roup)`)
	eventPattern        = regexp.MustCompile(`([A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+)?\s+(?:Conference|Summit|Expo|Festival))`)
	placePattern        = regexp.MustCompile(`(?:[Aa]t|[Ii]n)\s+(?:the\s+)?([A-Z][a-zA-Z]*(?:\s+[A-Z][a-zA-Z]*)*\s+(?:Building|Office|Room|Suite|Center|Centre|Plaza|Mall|Hotel|Restaurant|Cafe|Park|Hospital|Clinic|School|University|Airport|Station))`)
)

// commonNonPersons filters pronouns and similar words out of person matches.
var commonNonPersons = map[string]bool{
	"me": true, "you": true, "him": true, "her": true, "us": true,
	"them": true, "it": true, "everyone": true, "everybody": true,
	"someone": true, "somebody": true, "anyone": true, "anybody": true,
}

// ExtractEntities finds person, organization, place, and event mentions in
// raw (unnormalized) text. Results keep first-occurrence order per type.
func ExtractEntities(text string) []Entity {
	var out []Entity

	for _, m := range eventPattern.FindAllStringSubmatch(text, -1) {
		out = append(out, Entity{Text: m[1], Type: EntityEvent})
	}

	for _, m := range personPattern.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		if !commonNonPersons[strings.ToLower(name)] {
			out = append(out, Entity{Text: name, Type: EntityPerson})
		}
	}
	for _, m := range hebrewPersonPattern.FindAllStringSubmatch(text, -1) {
		out = append(out, Entity{Text: m[1], Type: EntityPerson})
	}

	for _, m := range orgPattern.FindAllStringSubmatch(text, -1) {
		out = append(out, Entity{Text: m[1], Type: EntityOrg})
	}

	for _, m := range placePattern.FindAllStringSubmatch(text, -1) {
		out = append(out, Entity{Text: m[1], Type: EntityPlace})
	}

	return out
}

// entitiesOfType returns the texts of entities matching typ.
func entitiesOfType(entities []Entity, typ EntityType) []string {
	var out []string
	for _, e := range entities {
		if e.Type == typ {
			out = append(out, e.Text)
		}
	}
	return out
}
