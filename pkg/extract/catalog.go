package extract

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

// LoadBuildingIDs reads a campus GeoJSON file and returns the set of
// building identifiers, taken from features whose tipo property is
// "EDIFICIO". The set restricts extraction to known buildings; analytics for
// identifiers outside it are skipped.
func LoadBuildingIDs(path string) (map[string]bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load building catalog: %w", err)
	}

	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("load building catalog %s: not valid JSON", path)
	}

	ids := make(map[string]bool)
	for _, feature := range gjson.GetBytes(raw, "features").Array() {
		props := feature.Get("properties")
		if props.Get("tipo").String() != "EDIFICIO" {
			continue
		}
		if id := props.Get("id").String(); id != "" {
			ids[id] = true
		}
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("load building catalog %s: no EDIFICIO features", path)
	}
	return ids, nil
}
